// Package citation splits a rendered in-text citation group into one
// sub-range per cited work and binds each sub-range to its record.
package citation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/noterools/zotlink/internal/bookmark"
	"github.com/noterools/zotlink/internal/host"
	"github.com/noterools/zotlink/internal/linkerr"
	"github.com/noterools/zotlink/internal/reference"
)

// ShortGroupLen is the longest group text, in runes, treated as a bare
// reference that needs no author match, e.g. "(2019)" or "[12]".
const ShortGroupLen = 7

var (
	yearPattern  = regexp.MustCompile(`\b\d{4}[a-z]?\b`)
	digitPattern = regexp.MustCompile(`[0-9]+`)
)

// Group is one rendered in-text citation and the records it cites.
type Group struct {
	Field   int                // Index of the citation field in document order
	Text    string             // Rendered citation text
	Records []reference.Record // Records of this field's payload, in payload order
}

// Segment is the part of a group that cites one work.
type Segment struct {
	Span   host.Span         `json:"span"`   // Contiguous partition of the group text
	Anchor host.Span         `json:"anchor"` // Sub-range the hyperlink covers
	Token  string            `json:"token"`  // Year token, or digit run in numbered mode
	Shared bool              `json:"shared"` // Author block reused from the previous segment
	Record *reference.Record `json:"record,omitempty"`
	ID     string            `json:"id,omitempty"`
}

// Matched reports whether the segment is bound to an identifier.
func (s Segment) Matched() bool {
	return s.ID != ""
}

// Resolver segments citation groups.
type Resolver struct {
	IDs      bookmark.Generator
	Numbered bool
}

// Resolve segments a group and binds each segment to a record.
//
// Segments always cover the whole group text without overlap. Segments no
// record satisfies are returned unbound together with a *linkerr.MatchFailure
// each; the remaining segments are still usable.
func (r Resolver) Resolve(g Group) ([]Segment, []error) {
	if r.Numbered {
		return r.resolveNumbered(g)
	}
	return r.resolveAuthorYear(g)
}

// token is a match of a pattern in rune offsets.
type token struct {
	text  string
	start int
	end   int
}

func findTokens(re *regexp.Regexp, text string) []token {
	var tokens []token
	for _, loc := range re.FindAllStringIndex(text, -1) {
		start := utf8.RuneCountInString(text[:loc[0]])
		tok := text[loc[0]:loc[1]]
		tokens = append(tokens, token{
			text:  tok,
			start: start,
			end:   start + utf8.RuneCountInString(tok),
		})
	}
	return tokens
}

// partition splits runes at the end of each token, letting the separator
// directly after a token stay with it. The last span runs to the end.
func partition(runes []rune, tokens []token) []host.Span {
	spans := make([]host.Span, len(tokens))
	start := 0
	for i, tok := range tokens {
		end := tok.end
		for end < len(runes) && isSeparator(runes[end]) {
			if i+1 < len(tokens) && end >= tokens[i+1].start {
				break
			}
			end++
		}
		if i == len(tokens)-1 {
			end = len(runes)
		}
		spans[i] = host.Span{Start: start, End: end}
		start = end
	}
	return spans
}

func isSeparator(r rune) bool {
	switch r {
	case ';', ',', '；', '，':
		return true
	}
	return false
}

func isAnchorTrim(r rune) bool {
	if unicode.IsSpace(r) || isSeparator(r) {
		return true
	}
	switch r {
	case '(', ')', '（', '）', '[', ']', '【', '】':
		return true
	}
	return false
}

// anchorOf trims whitespace, brackets and separators off both ends of a span.
// A span that trims to nothing keeps its original bounds.
func anchorOf(runes []rune, span host.Span) host.Span {
	start, end := span.Start, span.End
	for start < end && isAnchorTrim(runes[start]) {
		start++
	}
	for end > start && isAnchorTrim(runes[end-1]) {
		end--
	}
	if start == end {
		return span
	}
	return host.Span{Start: start, End: end}
}

func (r Resolver) resolveAuthorYear(g Group) ([]Segment, []error) {
	runes := []rune(g.Text)
	years := findTokens(yearPattern, g.Text)
	if len(years) == 0 {
		whole := host.Span{Start: 0, End: len(runes)}
		seg := Segment{Span: whole, Anchor: anchorOf(runes, whole)}
		return []Segment{seg}, []error{r.failure(g, g.Text)}
	}

	spans := partition(runes, years)
	short := len(runes) <= ShortGroupLen
	bound := make(map[string]bool)
	segments := make([]Segment, len(years))
	var errs []error

	lastAuthors := ""
	for i, year := range years {
		authorsText := string(runes[spans[i].Start:year.start])
		shared := bookmark.StripInvalid(authorsText) == ""
		if !shared {
			lastAuthors = authorsText
		}

		seg := Segment{
			Span:   spans[i],
			Anchor: anchorOf(runes, spans[i]),
			Token:  year.text,
			Shared: shared,
		}

		if rec, ok := selectRecord(g.Records, lastAuthors, shared, year.text[:4], short, bound); ok {
			id := r.IDs.ID(rec)
			seg.Record = &rec
			seg.ID = id
			bound[rec.SourceKey] = true
		} else {
			errs = append(errs, r.failure(g, spans[i].Slice(g.Text)))
		}
		segments[i] = seg
	}

	return segments, errs
}

// selectRecord picks the record cited by one segment. Rules, by precedence:
//  1. the first author appears in the author block and the year matches
//  2. the segment's own author block is empty and the year matches
//  3. the whole group is short enough to need no author match
//
// Within a rule, records not yet bound in this group win, which keeps
// "Jones 2019a, 2019b" from binding the same work twice.
func selectRecord(records []reference.Record, authors string, shared bool, year string, short bool, bound map[string]bool) (reference.Record, bool) {
	rules := []func(reference.Record) bool{
		func(rec reference.Record) bool {
			return rec.Year == year && strings.Contains(authors, rec.FirstAuthorName())
		},
		func(rec reference.Record) bool {
			return rec.Year == year && shared
		},
		func(reference.Record) bool {
			return short
		},
	}

	for _, rule := range rules {
		fallback := -1
		for i, rec := range records {
			if !rule(rec) {
				continue
			}
			if !bound[rec.SourceKey] {
				return rec, true
			}
			if fallback < 0 {
				fallback = i
			}
		}
		if fallback >= 0 {
			return records[fallback], true
		}
	}
	return reference.Record{}, false
}

func (r Resolver) resolveNumbered(g Group) ([]Segment, []error) {
	runes := []rune(g.Text)
	digits := findTokens(digitPattern, g.Text)
	if len(digits) == 0 {
		whole := host.Span{Start: 0, End: len(runes)}
		seg := Segment{Span: whole, Anchor: anchorOf(runes, whole)}
		return []Segment{seg}, []error{r.failure(g, g.Text)}
	}

	spans := partition(runes, digits)
	segments := make([]Segment, len(digits))
	for i, d := range digits {
		segments[i] = Segment{
			Span:   spans[i],
			Anchor: host.Span{Start: d.start, End: d.end},
			Token:  d.text,
			ID:     bookmark.Prefix + d.text,
		}
	}
	return segments, nil
}

func (r Resolver) failure(g Group, text string) error {
	return &linkerr.MatchFailure{Kind: linkerr.MatchCitation, Index: g.Field, Text: text}
}
