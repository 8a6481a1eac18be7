// Package storage keeps the run ledger: an append-only JSONL file that is
// the source of truth, and a SQLite index rebuilt from it for queries.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadAll reads all runs from a JSONL file.
func ReadAll(path string) ([]Run, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Empty file returns empty slice
		}
		return nil, fmt.Errorf("opening runs file: %w", err)
	}
	defer f.Close()

	var runs []Run
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var run Run
		if err := json.Unmarshal(line, &run); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		runs = append(runs, run)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading runs file: %w", err)
	}

	return runs, nil
}

// Append adds a run to the end of a JSONL file, creating the file and its
// directory if needed.
func Append(path string, run Run) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening runs file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encoding run: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing run: %w", err)
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}

	return nil
}

// FindByID searches for a run by ID.
func FindByID(runs []Run, id string) (int, bool) {
	for i, run := range runs {
		if run.ID == id {
			return i, true
		}
	}
	return -1, false
}
