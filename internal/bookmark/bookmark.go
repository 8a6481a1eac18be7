// Package bookmark derives the bookmark identifiers shared by bibliography
// entries and the hyperlinks that point at them.
package bookmark

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/noterools/zotlink/internal/reference"
)

// Prefix starts every identifier.
const Prefix = "Ref_"

// Separator terminates each author's contribution to an identifier.
const Separator = "_"

// Et-al suffixes appended after the retained authors.
const (
	EtAlLatin = "etal"
	EtAlCJK   = "等"
)

// invalidChars cannot appear in a Word bookmark name.
var invalidChars = []string{
	":", ";", ".", ",", "：", "；", "。", "，",
	"'", "’", " ", "-", "/", "(", ")", "（", "）",
}

var invalidReplacer = func() *strings.Replacer {
	pairs := make([]string, 0, len(invalidChars)*2)
	for _, c := range invalidChars {
		pairs = append(pairs, c, "")
	}
	return strings.NewReplacer(pairs...)
}()

// StripInvalid removes every character that cannot appear in a bookmark name.
func StripInvalid(s string) string {
	return invalidReplacer.Replace(s)
}

// GenerateID builds the author-year identifier for a work.
//
// etAl is the author-count threshold; values <= 0 disable truncation.
// Authors beyond the threshold are dropped and an et-al suffix is added.
func GenerateID(authors []reference.Name, year string, lang reference.Language, etAl int) string {
	useEtAl := false
	if etAl > 0 && len(authors) > etAl {
		authors = authors[:etAl]
		useEtAl = true
	}

	var b strings.Builder
	for _, a := range authors {
		if a.IsLiteral() {
			b.WriteString(strings.ReplaceAll(a.Literal, " ", ""))
			continue
		}
		b.WriteString(a.Family)
		if lang == reference.Chinese {
			b.WriteString(strings.ReplaceAll(a.Given, " ", ""))
		} else {
			b.WriteString(initials(a.Given))
		}
		b.WriteString(Separator)
	}

	text := strings.TrimRight(b.String(), Separator)
	if useEtAl {
		if lang == reference.Chinese {
			text += Separator + EtAlCJK
		} else {
			text += Separator + EtAlLatin
		}
	}

	return Prefix + StripInvalid(text) + Separator + year
}

// initials returns the upper-cased first letter of each hyphen-separated
// part of a given name: "John-Paul" → "JP", "John" → "J".
func initials(given string) string {
	if !strings.Contains(given, "-") {
		return firstUpper(given)
	}
	var b strings.Builder
	for _, part := range strings.Split(given, "-") {
		b.WriteString(firstUpper(part))
	}
	return b.String()
}

func firstUpper(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// ForRecord builds the author-year identifier of a record.
func ForRecord(r reference.Record, etAl int) string {
	return GenerateID(r.Authors, r.Year, r.Language, etAl)
}

// SourceKeyID builds an identifier from the record's source key.
func SourceKeyID(r reference.Record) string {
	return Prefix + StripInvalid(r.SourceKey)
}

// Numbered returns the identifier of the n-th entry of a numbered bibliography.
func Numbered(n int) string {
	return Prefix + strconv.Itoa(n)
}
