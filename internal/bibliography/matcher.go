// Package bibliography binds rendered bibliography paragraphs to citation
// records and computes the sub-ranges cosmetic edits apply to.
package bibliography

import (
	"strings"
	"unicode/utf8"

	"github.com/noterools/zotlink/internal/bookmark"
	"github.com/noterools/zotlink/internal/extract"
	"github.com/noterools/zotlink/internal/host"
	"github.com/noterools/zotlink/internal/linkerr"
	"github.com/noterools/zotlink/internal/reference"
)

// Entry is one rendered bibliography paragraph and its binding.
type Entry struct {
	Index   int               `json:"index"`
	Text    string            `json:"text"`
	Record  *reference.Record `json:"record,omitempty"` // nil when unmatched or numbered
	ID      string            `json:"id,omitempty"`
	Matched bool              `json:"matched"`
}

// Matcher binds paragraphs to records.
type Matcher struct {
	IDs      bookmark.Generator
	Numbered bool
}

// Match binds each paragraph to the first live record of the pool that it
// satisfies and removes that record from the pool. Paragraphs nothing
// satisfies are returned unmatched together with a *linkerr.MatchFailure.
//
// In numbered mode no record is consulted; paragraph n gets Ref_<n>.
func (m Matcher) Match(paragraphs []string, pool *extract.Pool) ([]Entry, []error) {
	entries := make([]Entry, len(paragraphs))
	var errs []error

	for i, text := range paragraphs {
		entries[i] = Entry{Index: i, Text: text}

		if m.Numbered {
			entries[i].ID = bookmark.Numbered(i + 1)
			entries[i].Matched = true
			continue
		}

		rec, ok := m.find(text, pool)
		if !ok {
			errs = append(errs, &linkerr.MatchFailure{
				Kind: linkerr.MatchBibliography, Index: i, Text: text,
			})
			continue
		}
		pool.Remove(rec.Title)
		entries[i].Record = &rec
		entries[i].ID = m.IDs.ID(rec)
		entries[i].Matched = true
	}

	return entries, errs
}

func (m Matcher) find(text string, pool *extract.Pool) (reference.Record, bool) {
	for _, rec := range pool.Live() {
		if Satisfies(text, rec) {
			return rec, true
		}
	}
	return reference.Record{}, false
}

// Satisfies reports whether paragraph text renders rec. The title, container
// title and first author must all occur in the text, and the title must not
// occur as the prefix of a longer title.
func Satisfies(text string, rec reference.Record) bool {
	return strings.Contains(text, rec.Title) &&
		strings.Contains(text, rec.ContainerTitle) &&
		strings.Contains(text, rec.FirstAuthorName()) &&
		!strings.Contains(text, rec.Title+" ")
}

// MarkerSpan returns the rune offsets of the single occurrence of marker in
// text. Zero or several occurrences yield a *linkerr.AmbiguousMarkerError.
func MarkerSpan(text, marker string) (host.Span, error) {
	count := 0
	if marker != "" {
		count = strings.Count(text, marker)
	}
	if count != 1 {
		return host.Span{}, &linkerr.AmbiguousMarkerError{Marker: marker, Count: count, Text: text}
	}
	start := utf8.RuneCountInString(text[:strings.Index(text, marker)])
	return host.Span{Start: start, End: start + utf8.RuneCountInString(marker)}, nil
}
