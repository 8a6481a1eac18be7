// Package linkerr defines the errors raised while linking citations to a
// bibliography.
package linkerr

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure class. The typed errors below match
// their sentinel with errors.Is.
var (
	// ErrDataExtraction indicates an embedded citation payload is unreadable.
	ErrDataExtraction = errors.New("citation data extraction failed")

	// ErrMatchFailure indicates rendered text has no corresponding record.
	ErrMatchFailure = errors.New("no matching citation record")

	// ErrIdentifierCollision indicates two records resolve to the same identifier.
	ErrIdentifierCollision = errors.New("identifier collision")

	// ErrAmbiguousMarker indicates a span marker does not occur exactly once.
	ErrAmbiguousMarker = errors.New("ambiguous marker")
)

// DataExtractionError reports a malformed or incomplete citation payload.
// It aborts the whole document pass.
type DataExtractionError struct {
	Field  int    // Index of the field in document order
	Raw    string // Raw field code text
	Reason string
	Err    error // Underlying decode error, if any
}

func (e *DataExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("field %d: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("field %d: %s", e.Field, e.Reason)
}

func (e *DataExtractionError) Unwrap() error { return e.Err }

func (e *DataExtractionError) Is(target error) bool { return target == ErrDataExtraction }

// MatchKind says which side of the document failed to match.
type MatchKind string

const (
	MatchBibliography MatchKind = "bibliography"
	MatchCitation     MatchKind = "citation"
)

// MatchFailure reports a bibliography paragraph or citation segment that no
// record satisfies. Processing continues.
type MatchFailure struct {
	Kind  MatchKind
	Index int    // Paragraph index, or citation field index
	Text  string // Unmatched rendered text
}

func (e *MatchFailure) Error() string {
	return fmt.Sprintf("%s %d: no matching record for %q", e.Kind, e.Index, e.Text)
}

func (e *MatchFailure) Is(target error) bool { return target == ErrMatchFailure }

// IdentifierCollisionError reports two distinct records sharing a generated
// identifier. The later record is skipped unless collisions are fatal.
type IdentifierCollisionError struct {
	ID       string
	Existing string // Source key already bound to ID
	Incoming string // Source key that was skipped
}

func (e *IdentifierCollisionError) Error() string {
	return fmt.Sprintf("identifier %s already bound to %s, skipping %s", e.ID, e.Existing, e.Incoming)
}

func (e *IdentifierCollisionError) Is(target error) bool { return target == ErrIdentifierCollision }

// AmbiguousMarkerError reports a cosmetic span marker that occurs zero or
// several times in its paragraph. Only the cosmetic edit is skipped.
type AmbiguousMarkerError struct {
	Marker string
	Count  int
	Text   string
}

func (e *AmbiguousMarkerError) Error() string {
	return fmt.Sprintf("marker %q occurs %d times in %q", e.Marker, e.Count, e.Text)
}

func (e *AmbiguousMarkerError) Is(target error) bool { return target == ErrAmbiguousMarker }

// IsFatal returns true if err must abort the document pass.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDataExtraction)
}

// Kind returns a short name for the failure class of err, or "error".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrDataExtraction):
		return "data_extraction"
	case errors.Is(err, ErrMatchFailure):
		return "match_failure"
	case errors.Is(err, ErrIdentifierCollision):
		return "identifier_collision"
	case errors.Is(err, ErrAmbiguousMarker):
		return "ambiguous_marker"
	}
	return "error"
}
