// Package extract reads the CSL payloads Zotero embeds in citation field
// codes and turns them into citation records.
package extract

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/noterools/zotlink/internal/host"
	"github.com/noterools/zotlink/internal/reference"
)

// FlexibleString can unmarshal from either string or number JSON values.
// Zotero writes date parts as numbers, some plugins write them as strings.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	// Handle null
	if string(data) == "null" {
		*f = ""
		return nil
	}

	// Try string first
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	// Try number
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// Payload is the JSON object embedded in a citation field code.
type Payload struct {
	CitationItems []Item `json:"citationItems"`
}

// Item is one cited work inside a payload.
type Item struct {
	URIs     []string `json:"uris"`
	URI      []string `json:"uri"` // Written by older plugin versions
	ItemData ItemData `json:"itemData"`
}

// ItemData is the CSL-JSON description of a cited work.
type ItemData struct {
	Title          string `json:"title"`
	ContainerTitle string `json:"container-title"`
	Publisher      string `json:"publisher"`
	Issued         struct {
		DateParts [][]FlexibleString `json:"date-parts"`
	} `json:"issued"`
	Language string           `json:"language"`
	Author   []reference.Name `json:"author"`
}

// IsItemField reports whether a field code belongs to an in-text citation.
func IsItemField(code string) bool {
	return strings.Contains(code, host.ItemMarker)
}

// IsBibliographyField reports whether a field code belongs to the bibliography.
func IsBibliographyField(code string) bool {
	return strings.Contains(code, host.BibliographyMarker)
}

// ParseFieldCode locates the payload prefix in a field code and decodes the
// JSON that follows it.
func ParseFieldCode(code string) (*Payload, error) {
	idx := strings.Index(code, host.ItemPayloadPrefix)
	if idx < 0 {
		return nil, fmt.Errorf("missing %q prefix", host.ItemPayloadPrefix)
	}
	raw := strings.TrimSpace(code[idx+len(host.ItemPayloadPrefix):])
	if raw == "" {
		return nil, fmt.Errorf("empty payload")
	}

	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return &p, nil
}

// RecordsFromPayload converts every item of a payload to a record.
// The first invalid item stops the conversion.
func RecordsFromPayload(p *Payload) ([]reference.Record, error) {
	records := make([]reference.Record, 0, len(p.CitationItems))
	for i, item := range p.CitationItems {
		rec, err := itemToRecord(item)
		if err != nil {
			return nil, fmt.Errorf("citation item %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// itemToRecord converts a payload item to our Record type.
func itemToRecord(item Item) (reference.Record, error) {
	data := item.ItemData

	// Validate required fields
	if data.Title == "" {
		return reference.Record{}, fmt.Errorf("missing required field 'title'")
	}
	if len(data.Author) == 0 {
		return reference.Record{}, fmt.Errorf("missing required field 'author'")
	}
	for i, a := range data.Author {
		if a.Family == "" && a.Literal == "" {
			return reference.Record{}, fmt.Errorf("author %d has neither 'family' nor 'literal'", i)
		}
	}

	uris := item.URIs
	if len(uris) == 0 {
		uris = item.URI
	}
	if len(uris) == 0 {
		return reference.Record{}, fmt.Errorf("missing required field 'uris'")
	}
	key, err := sourceKey(uris[0])
	if err != nil {
		return reference.Record{}, err
	}

	year, err := issuedYear(data)
	if err != nil {
		return reference.Record{}, err
	}

	return reference.Record{
		SourceKey:      key,
		Title:          data.Title,
		ContainerTitle: data.ContainerTitle,
		Publisher:      data.Publisher,
		Year:           year,
		Authors:        data.Author,
		Language:       reference.ParseLanguage(data.Language),
	}, nil
}

// sourceKey returns the final path segment of an item URI,
// e.g. "http://zotero.org/users/1/items/ABCD1234" → "ABCD1234".
func sourceKey(uri string) (string, error) {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	}
	key := path.Base(strings.TrimRight(p, "/"))
	if key == "" || key == "." || key == "/" {
		return "", fmt.Errorf("cannot derive source key from uri %q", uri)
	}
	return key, nil
}

// issuedYear returns the bare four-digit year of date-parts[0][0].
func issuedYear(data ItemData) (string, error) {
	parts := data.Issued.DateParts
	if len(parts) == 0 || len(parts[0]) == 0 || parts[0][0].String() == "" {
		return "", fmt.Errorf("missing required field 'issued'")
	}
	year := parts[0][0].String()
	if _, err := strconv.Atoi(year); err != nil || len(year) != 4 {
		return "", fmt.Errorf("invalid year: %s", year)
	}
	return year, nil
}
