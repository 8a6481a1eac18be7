package extract

import (
	"github.com/noterools/zotlink/internal/citation"
	"github.com/noterools/zotlink/internal/host"
	"github.com/noterools/zotlink/internal/linkerr"
	"github.com/noterools/zotlink/internal/reference"
)

// Pool holds the records of a document keyed by title, in order of first
// appearance. The first record seen for a title wins; later records with the
// same title are discarded even if their metadata differs.
//
// Removal tombstones a title: it is no longer live, but Add still refuses
// it, so a work can be bound to at most one bibliography entry.
type Pool struct {
	order   []string
	records map[string]reference.Record
	removed map[string]bool
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{
		records: make(map[string]reference.Record),
		removed: make(map[string]bool),
	}
}

// Add registers a record. It returns false if the title is already known.
func (p *Pool) Add(r reference.Record) bool {
	if _, ok := p.records[r.Title]; ok {
		return false
	}
	p.order = append(p.order, r.Title)
	p.records[r.Title] = r
	return true
}

// Get returns the live record for a title.
func (p *Pool) Get(title string) (reference.Record, bool) {
	r, ok := p.records[title]
	if !ok || p.removed[title] {
		return reference.Record{}, false
	}
	return r, true
}

// Remove takes a title out of the live set. It returns false if the title
// was not live.
func (p *Pool) Remove(title string) bool {
	if _, ok := p.Get(title); !ok {
		return false
	}
	p.removed[title] = true
	return true
}

// Live returns a snapshot of the live records in insertion order.
// Removing records while ranging over the snapshot is safe.
func (p *Pool) Live() []reference.Record {
	live := make([]reference.Record, 0, p.Len())
	for _, title := range p.order {
		if !p.removed[title] {
			live = append(live, p.records[title])
		}
	}
	return live
}

// All returns every record ever added, including removed ones.
func (p *Pool) All() []reference.Record {
	all := make([]reference.Record, 0, len(p.order))
	for _, title := range p.order {
		all = append(all, p.records[title])
	}
	return all
}

// Len returns the number of live records.
func (p *Pool) Len() int {
	return len(p.order) - len(p.removed)
}

// BuildPool scans the citation fields of a document. It returns the record
// pool and one citation group per field, in document order. Any unreadable
// payload aborts the scan with a *linkerr.DataExtractionError.
func BuildPool(fields []host.Field) (*Pool, []citation.Group, error) {
	pool := NewPool()
	var groups []citation.Group

	for i, f := range fields {
		if !IsItemField(f.Code) {
			continue
		}

		payload, err := ParseFieldCode(f.Code)
		if err != nil {
			return nil, nil, &linkerr.DataExtractionError{
				Field: i, Raw: f.Code, Reason: "unreadable citation payload", Err: err,
			}
		}
		records, err := RecordsFromPayload(payload)
		if err != nil {
			return nil, nil, &linkerr.DataExtractionError{
				Field: i, Raw: f.Code, Reason: "incomplete citation item", Err: err,
			}
		}

		for _, r := range records {
			pool.Add(r)
		}
		groups = append(groups, citation.Group{Field: i, Text: f.Result, Records: records})
	}

	return pool, groups, nil
}
