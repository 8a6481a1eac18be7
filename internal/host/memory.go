package host

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"
)

// Snapshot is a serialized document: its fields and bibliography text.
// Snapshots let the linker run without a word processor.
type Snapshot struct {
	Fields       []Field  `json:"fields"`
	Bibliography []string `json:"bibliography"`
}

// Bookmark is a bookmark applied to a Memory host.
type Bookmark struct {
	ID    string `json:"id"`
	Range Range  `json:"range"`
	Text  string `json:"text"`
}

// Hyperlink is an internal link applied to a Memory host.
type Hyperlink struct {
	Target string `json:"target"`
	Range  Range  `json:"range"`
	Text   string `json:"text"`
}

// StyleEdit is a font style change applied to a Memory host.
type StyleEdit struct {
	Range Range     `json:"range"`
	Style FontStyle `json:"style"`
	Text  string    `json:"text"`
}

// Plan lists every operation applied to a Memory host, in order.
type Plan struct {
	Bookmarks  []Bookmark  `json:"bookmarks"`
	Hyperlinks []Hyperlink `json:"hyperlinks"`
	Styles     []StyleEdit `json:"styles,omitempty"`
}

// Memory is an in-memory Host. It validates ranges and bookmark names the
// way a word processor would and records what was applied.
type Memory struct {
	snapshot Snapshot
	names    map[string]bool
	plan     Plan
}

var _ Host = (*Memory)(nil)

// NewMemory creates a Memory host over a snapshot.
func NewMemory(s Snapshot) *Memory {
	return &Memory{snapshot: s, names: make(map[string]bool)}
}

// LoadSnapshot reads a JSON snapshot file into a Memory host.
func LoadSnapshot(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return NewMemory(s), nil
}

// CitationFields implements Host.
func (m *Memory) CitationFields() ([]Field, error) {
	return append([]Field(nil), m.snapshot.Fields...), nil
}

// BibliographyParagraphs implements Host.
func (m *Memory) BibliographyParagraphs() ([]string, error) {
	return append([]string(nil), m.snapshot.Bibliography...), nil
}

// Reset implements Host.
func (m *Memory) Reset() error {
	m.names = make(map[string]bool)
	m.plan = Plan{}
	return nil
}

// ApplyBookmark implements Host.
func (m *Memory) ApplyBookmark(id string, r Range) error {
	if id == "" || utf8.RuneCountInString(id) > MaxBookmarkName {
		return fmt.Errorf("%w: %q", ErrInvalidName, id)
	}
	if m.names[id] {
		return fmt.Errorf("%w: %s", ErrDuplicateName, id)
	}
	text, err := m.text(r)
	if err != nil {
		return err
	}
	m.names[id] = true
	m.plan.Bookmarks = append(m.plan.Bookmarks, Bookmark{ID: id, Range: r, Text: text})
	return nil
}

// ApplyHyperlink implements Host.
func (m *Memory) ApplyHyperlink(id string, r Range) error {
	text, err := m.text(r)
	if err != nil {
		return err
	}
	m.plan.Hyperlinks = append(m.plan.Hyperlinks, Hyperlink{Target: id, Range: r, Text: text})
	return nil
}

// SetFontStyle implements Host.
func (m *Memory) SetFontStyle(r Range, s FontStyle) error {
	text, err := m.text(r)
	if err != nil {
		return err
	}
	m.plan.Styles = append(m.plan.Styles, StyleEdit{Range: r, Style: s, Text: text})
	return nil
}

// Plan returns the operations applied so far.
func (m *Memory) Plan() Plan {
	return m.plan
}

// HasBookmark reports whether a bookmark named id was applied.
func (m *Memory) HasBookmark(id string) bool {
	return m.names[id]
}

// WritePlan writes the applied operations as indented JSON.
func (m *Memory) WritePlan(path string) error {
	data, err := json.MarshalIndent(m.plan, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	return nil
}

// text resolves a range against the snapshot.
func (m *Memory) text(r Range) (string, error) {
	var anchorText string
	switch r.Kind {
	case KindField:
		if r.Index < 0 || r.Index >= len(m.snapshot.Fields) {
			return "", fmt.Errorf("%w: no field %d", ErrInvalidRange, r.Index)
		}
		anchorText = m.snapshot.Fields[r.Index].Result
	case KindParagraph:
		if r.Index < 0 || r.Index >= len(m.snapshot.Bibliography) {
			return "", fmt.Errorf("%w: no paragraph %d", ErrInvalidRange, r.Index)
		}
		anchorText = m.snapshot.Bibliography[r.Index]
	default:
		return "", fmt.Errorf("%w: unknown anchor kind %q", ErrInvalidRange, r.Kind)
	}

	if err := CheckSpan(r.Span, utf8.RuneCountInString(anchorText)); err != nil {
		return "", err
	}
	return r.Span.Slice(anchorText), nil
}
