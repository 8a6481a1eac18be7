// Package host defines the document host the linker drives: the text it
// exposes and the bookmark, hyperlink and font operations it accepts.
package host

import (
	"errors"
	"fmt"
)

// Field code markers written by the Zotero word processor plugin.
const (
	ItemMarker         = "ADDIN ZOTERO_ITEM"
	ItemPayloadPrefix  = "ADDIN ZOTERO_ITEM CSL_CITATION"
	BibliographyMarker = "ADDIN ZOTERO_BIBL"
	CrossRefMarker     = "REF _Ref" // Word cross-reference to a numbered caption or heading
)

// MaxBookmarkName is the longest bookmark name Word accepts, in runes.
const MaxBookmarkName = 40

// Common errors returned by hosts.
var (
	// ErrDuplicateName indicates a bookmark with the same name already exists.
	ErrDuplicateName = errors.New("bookmark name already exists")

	// ErrInvalidRange indicates a range outside its anchor's text.
	ErrInvalidRange = errors.New("invalid text range")

	// ErrInvalidName indicates a bookmark name the host cannot store.
	ErrInvalidName = errors.New("invalid bookmark name")
)

// Field is one field of the document: its code text (which carries the
// embedded payload) and its rendered result text.
type Field struct {
	Code   string `json:"code"`
	Result string `json:"result"`
}

// Host is the document collaborator. Offsets in ranges count runes.
type Host interface {
	// CitationFields returns every field of the document in document order.
	CitationFields() ([]Field, error)

	// BibliographyParagraphs returns the rendered bibliography, one string
	// per entry, without paragraph marks.
	BibliographyParagraphs() ([]string, error)

	// Reset removes bookmarks and internal links left by a previous pass.
	Reset() error

	// ApplyBookmark binds id to a range.
	ApplyBookmark(id string, r Range) error

	// ApplyHyperlink anchors an internal link to the bookmark id at a range.
	ApplyHyperlink(id string, r Range) error

	// SetFontStyle applies cosmetic formatting to a range.
	SetFontStyle(r Range, s FontStyle) error
}

// AnchorKind says what a range offset is relative to.
type AnchorKind string

const (
	KindField     AnchorKind = "field"     // Result text of the Index-th field
	KindParagraph AnchorKind = "paragraph" // Index-th bibliography paragraph
)

// Anchor identifies the text a range is relative to.
type Anchor struct {
	Kind  AnchorKind `json:"kind"`
	Index int        `json:"index"`
}

// Span is a half-open interval of rune offsets.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Empty reports whether the span covers no text.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Slice returns the runes of text covered by the span.
func (s Span) Slice(text string) string {
	runes := []rune(text)
	if s.Start < 0 || s.End > len(runes) || s.Start > s.End {
		return ""
	}
	return string(runes[s.Start:s.End])
}

// Range locates text inside a host document.
type Range struct {
	Anchor
	Span
}

// FieldRange returns a range inside the result text of a field.
func FieldRange(index int, span Span) Range {
	return Range{Anchor: Anchor{Kind: KindField, Index: index}, Span: span}
}

// ParagraphRange returns a range inside a bibliography paragraph.
func ParagraphRange(index int, span Span) Range {
	return Range{Anchor: Anchor{Kind: KindParagraph, Index: index}, Span: span}
}

func (r Range) String() string {
	return fmt.Sprintf("%s[%d][%d:%d]", r.Kind, r.Index, r.Start, r.End)
}

// FontStyle carries optional formatting. Nil fields and an empty Color are
// left unchanged.
type FontStyle struct {
	Italic    *bool  `json:"italic,omitempty"`
	Bold      *bool  `json:"bold,omitempty"`
	Color     string `json:"color,omitempty"` // RRGGBB hex
	Underline *bool  `json:"underline,omitempty"`
}

// Bool returns a pointer to b, for FontStyle fields.
func Bool(b bool) *bool {
	return &b
}

// CheckSpan validates that span fits inside a text of n runes.
func CheckSpan(span Span, n int) error {
	if span.Start < 0 || span.End > n || span.Empty() {
		return fmt.Errorf("%w: [%d:%d] in text of length %d", ErrInvalidRange, span.Start, span.End, n)
	}
	return nil
}
