package reference

import (
	"strings"

	"golang.org/x/text/language"
)

// Name represents an author in CSL form. Exactly one of Family (with an
// optional Given) or Literal is populated.
type Name struct {
	Family  string `json:"family,omitempty"`
	Given   string `json:"given,omitempty"`
	Literal string `json:"literal,omitempty"` // Corporate or untitled authors
}

// IsLiteral reports whether the name only carries a literal form.
func (n Name) IsLiteral() bool {
	return n.Family == "" && n.Literal != ""
}

// Rendered returns the form of the name that appears in rendered text.
func (n Name) Rendered(lang Language) string {
	if n.IsLiteral() {
		return n.Literal
	}
	if lang == Chinese {
		return n.Family + n.Given
	}
	return n.Family
}

// Language selects the name-joining rules used for a record.
type Language string

const (
	English Language = "en"
	Chinese Language = "cn"
)

// DefaultLanguage is assumed when a payload carries no language tag.
// Untagged records are treated as CJK.
const DefaultLanguage = Chinese

// ParseLanguage normalizes a CSL language tag to English or Chinese.
//
// Rules:
//   - ""                         → DefaultLanguage
//   - "cn", "chinese", "中文"     → Chinese
//   - BCP 47 tags with base "zh" → Chinese ("zh", "zh-CN", "zh-Hans")
//   - any other tag              → English
func ParseLanguage(tag string) Language {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return DefaultLanguage
	}

	lower := strings.ToLower(tag)
	switch {
	case lower == "cn", lower == "chinese", strings.HasPrefix(lower, "cn-"),
		strings.Contains(tag, "中"):
		return Chinese
	}

	if t, err := language.Parse(lower); err == nil {
		if base, _ := t.Base(); base.String() == "zh" {
			return Chinese
		}
	}
	return English
}
