package storage

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Ledger file names inside the ledger directory.
const (
	RunsFile = "runs.jsonl" // Source of truth
	DBFile   = "runs.db"    // Query index, rebuilt from RunsFile
)

// Paths returns the JSONL and SQLite paths of a ledger directory.
func Paths(dir string) (jsonlPath, dbPath string) {
	return filepath.Join(dir, RunsFile), filepath.Join(dir, DBFile)
}

// Run records one link pass over a document.
type Run struct {
	ID         string    `json:"id"`
	Document   string    `json:"document"`
	Output     string    `json:"output,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	Mode       string    `json:"mode"` // author-year, source-key or numbered
	Entries    int       `json:"entries"`
	Bookmarks  int       `json:"bookmarks"`
	Hyperlinks int       `json:"hyperlinks"`
	Unmatched  int       `json:"unmatched"`
	Problems   []Problem `json:"problems,omitempty"`
	Saved      bool      `json:"saved"`
	Fatal      string    `json:"fatal,omitempty"` // Error that aborted the pass
}

// Problem is a non-fatal condition recorded with a run.
type Problem struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewRun starts a run record for a document.
func NewRun(document string) Run {
	return Run{
		ID:        uuid.New().String(),
		Document:  document,
		StartedAt: time.Now().UTC(),
	}
}
