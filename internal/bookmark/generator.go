package bookmark

import (
	"fmt"

	"github.com/noterools/zotlink/internal/reference"
)

// Style selects how identifiers are derived for a document.
type Style string

const (
	StyleAuthorYear Style = "author-year" // Ref_<authors>_<year>
	StyleSourceKey  Style = "source-key"  // Ref_<source key>
)

// ValidStyles lists the supported identifier styles.
var ValidStyles = []Style{StyleAuthorYear, StyleSourceKey}

// ParseStyle validates an identifier style name. Empty selects author-year.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleAuthorYear, nil
	}
	for _, valid := range ValidStyles {
		if Style(s) == valid {
			return valid, nil
		}
	}
	return "", fmt.Errorf("invalid id style: %s (valid: %v)", s, ValidStyles)
}

// Generator assigns identifiers to records. The bibliography matcher and
// the citation resolver share one Generator so both sides of a link agree.
type Generator struct {
	Style Style
	EtAl  int // Et-al threshold for author-year identifiers, <= 0 disables
}

// ID returns the identifier of a record.
func (g Generator) ID(r reference.Record) string {
	if g.Style == StyleSourceKey {
		return SourceKeyID(r)
	}
	return ForRecord(r, g.EtAl)
}
