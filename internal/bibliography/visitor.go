package bibliography

import (
	"sort"

	"go.uber.org/multierr"

	"github.com/noterools/zotlink/internal/host"
	"github.com/noterools/zotlink/internal/reference"
)

// Styler applies font styles inside one paragraph. Spans are relative to
// the paragraph text.
type Styler interface {
	SetFontStyle(s host.Span, style host.FontStyle) error
}

// Visitor applies a cosmetic edit to a resolved paragraph.
type Visitor interface {
	Name() string
	Priority() int // Lower runs first
	Visit(e Entry, st Styler) error
}

// Visitors is an ordered set of paragraph visitors.
type Visitors []Visitor

// Sorted returns a copy ordered by priority. Equal priorities keep their
// relative order.
func (vs Visitors) Sorted() Visitors {
	out := append(Visitors(nil), vs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}

// Run invokes every visitor on an entry in priority order. A failing visitor
// does not stop the ones after it.
func (vs Visitors) Run(e Entry, st Styler) error {
	var err error
	for _, v := range vs.Sorted() {
		err = multierr.Append(err, v.Visit(e, st))
	}
	return err
}

// ItalicVisitor italicises the container title and publisher of Chinese
// entries.
type ItalicVisitor struct{}

func (ItalicVisitor) Name() string  { return "italic-cn-container" }
func (ItalicVisitor) Priority() int { return 10 }

func (ItalicVisitor) Visit(e Entry, st Styler) error {
	if e.Record == nil || e.Record.Language != reference.Chinese {
		return nil
	}

	var err error
	for _, marker := range []string{e.Record.ContainerTitle, e.Record.Publisher} {
		if marker == "" {
			continue
		}
		span, spanErr := MarkerSpan(e.Text, marker)
		if spanErr != nil {
			err = multierr.Append(err, spanErr)
			continue
		}
		err = multierr.Append(err, st.SetFontStyle(span, host.FontStyle{Italic: host.Bool(true)}))
	}
	return err
}

// ParagraphStyler scopes a host to one bibliography paragraph.
type ParagraphStyler struct {
	Host  host.Host
	Index int
}

func (p ParagraphStyler) SetFontStyle(s host.Span, style host.FontStyle) error {
	return p.Host.SetFontStyle(host.ParagraphRange(p.Index, s), style)
}
