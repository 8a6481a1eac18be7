// Package reference defines the core domain types for cited works.
package reference

// Record describes one cited work as it appears in an embedded Zotero
// citation payload. Records are never mutated after extraction.
type Record struct {
	// Identity
	SourceKey string `json:"source_key"` // Trailing path segment of the item URI

	// Metadata
	Title          string `json:"title"`
	ContainerTitle string `json:"container_title,omitempty"` // Journal, book or proceedings title
	Publisher      string `json:"publisher,omitempty"`
	Year           string `json:"year"` // Bare four digits, never carries a disambiguation letter
	Authors        []Name `json:"authors"`

	Language Language `json:"language"`
}

// FirstAuthor returns the first author of the record.
// Records built by the extractor always have at least one author.
func (r Record) FirstAuthor() Name {
	if len(r.Authors) == 0 {
		return Name{}
	}
	return r.Authors[0]
}

// FirstAuthorName renders the first author the way rendered citations and
// bibliography entries show it: family+given for CJK records, family alone
// otherwise, and the literal for corporate authors.
func (r Record) FirstAuthorName() string {
	return r.FirstAuthor().Rendered(r.Language)
}
