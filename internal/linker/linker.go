// Package linker runs the document pass: it extracts the record pool,
// bookmarks the bibliography and hyperlinks every in-text citation.
package linker

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/noterools/zotlink/internal/bibliography"
	"github.com/noterools/zotlink/internal/bookmark"
	"github.com/noterools/zotlink/internal/citation"
	"github.com/noterools/zotlink/internal/extract"
	"github.com/noterools/zotlink/internal/host"
	"github.com/noterools/zotlink/internal/linkerr"
)

// Options configures a document pass.
type Options struct {
	Numbered          bool
	IDs               bookmark.Generator
	StrictCollisions  bool
	ItalicCNContainer bool
	LinkColor         string // RRGGBB, empty leaves citation colour unchanged
	NoUnderline       bool
	CrossRef          CrossRefStyle
	Logger            *zap.Logger
}

// Problem is a non-fatal condition found during a pass.
type Problem struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Group is a resolved in-text citation.
type Group struct {
	Field    int                `json:"field"`
	Text     string             `json:"text"`
	Segments []citation.Segment `json:"segments"`
}

// Report summarizes a pass.
type Report struct {
	Entries    []bibliography.Entry `json:"entries"`
	Groups     []Group              `json:"groups"`
	Bookmarks  int                  `json:"bookmarks"`
	Hyperlinks int                  `json:"hyperlinks"`
	CrossRefs  int                  `json:"cross_refs"` // Cross-reference fields restyled
	Problems   []Problem            `json:"problems"`

	err error
}

// OK reports whether the pass finished without any problem.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

// Err returns every problem of the pass combined, or nil.
func (r *Report) Err() error {
	return r.err
}

// Unmatched returns the number of bibliography entries left unbound.
func (r *Report) Unmatched() int {
	n := 0
	for _, e := range r.Entries {
		if !e.Matched {
			n++
		}
	}
	return n
}

func (r *Report) add(err error) {
	if err == nil {
		return
	}
	for _, e := range multierr.Errors(err) {
		r.Problems = append(r.Problems, Problem{Kind: linkerr.Kind(e), Message: e.Error()})
	}
	r.err = multierr.Append(r.err, err)
}

// Linker drives a host through a pass.
type Linker struct {
	opts   Options
	logger *zap.Logger
}

// New creates a Linker.
func New(opts Options) *Linker {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Linker{opts: opts, logger: logger}
}

// Link runs one pass over h. The returned error is non-nil only when the pass
// was aborted: on unreadable citation data, on a host failure, or on an
// identifier collision in strict mode. Everything else is listed in the
// report.
func (l *Linker) Link(h host.Host) (*Report, error) {
	if err := h.Reset(); err != nil {
		return nil, fmt.Errorf("removing previous links: %w", err)
	}

	fields, err := h.CitationFields()
	if err != nil {
		return nil, fmt.Errorf("reading citation fields: %w", err)
	}
	pool, groups, err := extract.BuildPool(fields)
	if err != nil {
		l.logger.Error("citation data unreadable", zap.Error(err))
		return nil, err
	}
	l.logger.Debug("record pool built", zap.Int("records", pool.Len()), zap.Int("groups", len(groups)))

	paragraphs, err := h.BibliographyParagraphs()
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}

	report := &Report{}
	matcher := bibliography.Matcher{IDs: l.opts.IDs, Numbered: l.opts.Numbered}
	entries, errs := matcher.Match(paragraphs, pool)
	report.Entries = entries
	for _, e := range errs {
		l.logger.Warn("bibliography entry has no citation", zap.Error(e))
		report.add(e)
	}

	owners, err := l.bookmarkEntries(h, report)
	if err != nil {
		return report, err
	}

	resolver := citation.Resolver{IDs: l.opts.IDs, Numbered: l.opts.Numbered}
	for _, g := range groups {
		l.linkGroup(h, resolver, g, owners, report)
	}
	l.styleCrossRefs(h, fields, report)

	l.logger.Info("pass complete",
		zap.Int("entries", len(report.Entries)),
		zap.Int("bookmarks", report.Bookmarks),
		zap.Int("hyperlinks", report.Hyperlinks),
		zap.Int("cross_refs", report.CrossRefs),
		zap.Int("problems", len(report.Problems)))

	return report, nil
}

// bookmarkEntries bookmarks every matched paragraph and returns the source
// key owning each identifier now in the document. Numbered entries own their
// identifier with an empty key.
func (l *Linker) bookmarkEntries(h host.Host, report *Report) (map[string]string, error) {
	owners := make(map[string]string) // id -> source key

	var visitors bibliography.Visitors
	if l.opts.ItalicCNContainer && !l.opts.Numbered {
		visitors = append(visitors, bibliography.ItalicVisitor{})
	}

	for _, e := range report.Entries {
		if !e.Matched {
			continue
		}
		key := ""
		if e.Record != nil {
			key = e.Record.SourceKey
		}

		if existing, ok := owners[e.ID]; ok {
			if err := l.collision(e.ID, existing, key, report); err != nil {
				return owners, err
			}
			continue
		}

		span := host.Span{Start: 0, End: utf8.RuneCountInString(e.Text)}
		err := h.ApplyBookmark(e.ID, host.ParagraphRange(e.Index, span))
		if errors.Is(err, host.ErrDuplicateName) {
			if err := l.collision(e.ID, "", key, report); err != nil {
				return owners, err
			}
			continue
		}
		if err != nil {
			l.logger.Warn("bookmark not applied", zap.String("id", e.ID), zap.Error(err))
			report.add(fmt.Errorf("bookmarking paragraph %d: %w", e.Index, err))
			continue
		}
		owners[e.ID] = key
		report.Bookmarks++

		if err := visitors.Run(e, bibliography.ParagraphStyler{Host: h, Index: e.Index}); err != nil {
			l.logger.Warn("cosmetic edit skipped", zap.Int("paragraph", e.Index), zap.Error(err))
			report.add(err)
		}
	}
	return owners, nil
}

func (l *Linker) collision(id, existing, incoming string, report *Report) error {
	err := &linkerr.IdentifierCollisionError{ID: id, Existing: existing, Incoming: incoming}
	l.logger.Error("identifier collision", zap.String("id", id),
		zap.String("existing", existing), zap.String("incoming", incoming))
	report.add(err)
	if l.opts.StrictCollisions {
		return err
	}
	return nil
}

// linkGroup hyperlinks each segment of a group whose record owns the
// bookmark of its identifier. A segment whose identifier is missing, or is
// owned by another work after a collision, is reported and left unlinked.
func (l *Linker) linkGroup(h host.Host, resolver citation.Resolver, g citation.Group, owners map[string]string, report *Report) {
	segments, errs := resolver.Resolve(g)
	report.Groups = append(report.Groups, Group{Field: g.Field, Text: g.Text, Segments: segments})
	for _, e := range errs {
		l.logger.Warn("citation segment has no record", zap.Error(e))
		report.add(e)
	}

	linked := 0
	for _, seg := range segments {
		if !seg.Matched() {
			continue
		}
		key := ""
		if seg.Record != nil {
			key = seg.Record.SourceKey
		}
		owner, ok := owners[seg.ID]
		if !ok || owner != key {
			reason := "no bibliography entry " + seg.ID
			if ok {
				reason = fmt.Sprintf("bibliography entry %s belongs to %s", seg.ID, owner)
			}
			err := &linkerr.MatchFailure{
				Kind:  linkerr.MatchCitation,
				Index: g.Field,
				Text:  fmt.Sprintf("%s (%s)", seg.Anchor.Slice(g.Text), reason),
			}
			l.logger.Warn("hyperlink target missing", zap.String("id", seg.ID), zap.Int("field", g.Field))
			report.add(err)
			continue
		}

		r := host.FieldRange(g.Field, seg.Anchor)
		if err := h.ApplyHyperlink(seg.ID, r); err != nil {
			l.logger.Warn("hyperlink not applied", zap.Stringer("range", r), zap.Error(err))
			report.add(fmt.Errorf("linking %s: %w", r, err))
			continue
		}
		report.Hyperlinks++
		linked++

		if l.opts.NoUnderline {
			if err := h.SetFontStyle(r, host.FontStyle{Underline: host.Bool(false)}); err != nil {
				report.add(fmt.Errorf("styling %s: %w", r, err))
			}
		}
	}

	if linked > 0 && l.opts.LinkColor != "" {
		l.colorGroup(h, g, report)
	}
}

// colorGroup colours the group text except its surrounding brackets.
func (l *Linker) colorGroup(h host.Host, g citation.Group, report *Report) {
	n := utf8.RuneCountInString(g.Text)
	span := host.Span{Start: 0, End: n}
	if n > 2 {
		span = host.Span{Start: 1, End: n - 1}
	}
	r := host.FieldRange(g.Field, span)
	if err := h.SetFontStyle(r, host.FontStyle{Color: l.opts.LinkColor}); err != nil {
		report.add(fmt.Errorf("colouring %s: %w", r, err))
	}
}
