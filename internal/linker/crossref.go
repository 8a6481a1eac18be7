package linker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noterools/zotlink/internal/host"
)

// CrossRefStyle restyles Word cross-references (REF _Ref fields), e.g. the
// "Figure 2" a manuscript points to. Only the font changes, never the text.
type CrossRefStyle struct {
	Keywords []string // A field is styled when its result contains one; none disables styling
	Color    string   // RRGGBB, empty leaves colour unchanged
	Bold     bool     // false leaves weight unchanged
}

// Enabled reports whether any cross-reference can be styled.
func (c CrossRefStyle) Enabled() bool {
	return len(c.Keywords) > 0
}

// Matches reports whether a field is a cross-reference this style applies to.
func (c CrossRefStyle) Matches(f host.Field) bool {
	if !strings.Contains(f.Code, host.CrossRefMarker) {
		return false
	}
	for _, kw := range c.Keywords {
		if strings.Contains(f.Result, kw) {
			return true
		}
	}
	return false
}

func (c CrossRefStyle) fontStyle() host.FontStyle {
	s := host.FontStyle{Color: c.Color}
	if c.Bold {
		s.Bold = host.Bool(true)
	}
	return s
}

// styleCrossRefs applies the cross-reference style to the whole result of
// every matching field.
func (l *Linker) styleCrossRefs(h host.Host, fields []host.Field, report *Report) {
	style := l.opts.CrossRef
	if !style.Enabled() {
		return
	}
	for i, f := range fields {
		if !style.Matches(f) {
			continue
		}
		n := utf8.RuneCountInString(f.Result)
		if n == 0 {
			continue
		}
		r := host.FieldRange(i, host.Span{Start: 0, End: n})
		if err := h.SetFontStyle(r, style.fontStyle()); err != nil {
			l.logger.Warn("cross-reference not styled", zap.Stringer("range", r), zap.Error(err))
			report.add(fmt.Errorf("styling cross-reference %s: %w", r, err))
			continue
		}
		l.logger.Debug("cross-reference styled", zap.Int("field", i), zap.String("text", f.Result))
		report.CrossRefs++
	}
}
