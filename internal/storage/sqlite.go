package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// timeLayout stores start times with fixed width so they sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// selectRunFields contains the standard field list for SELECT queries.
const selectRunFields = `id, document, output, started_at, mode,
	entries, bookmarks, hyperlinks, unmatched, saved, fatal`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			output TEXT,
			started_at TEXT NOT NULL,
			mode TEXT NOT NULL,
			entries INTEGER NOT NULL,
			bookmarks INTEGER NOT NULL,
			hyperlinks INTEGER NOT NULL,
			unmatched INTEGER NOT NULL,
			saved INTEGER NOT NULL,
			fatal TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_runs_document ON runs(document);

		CREATE TABLE IF NOT EXISTS problems (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);

		-- Full-text search over problem messages
		CREATE VIRTUAL TABLE IF NOT EXISTS problems_fts USING fts5(
			run_id UNINDEXED,
			message
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	runs, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"runs", "problems", "problems_fts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return 0, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	runsStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO runs (` + selectRunFields + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing runs insert: %w", err)
	}
	defer runsStmt.Close()

	problemsStmt, err := tx.Prepare(`INSERT OR REPLACE INTO problems (run_id, seq, kind, message) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing problems insert: %w", err)
	}
	defer problemsStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO problems_fts (run_id, message) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, run := range runs {
		_, err := runsStmt.Exec(
			run.ID, run.Document, nullableStringValue(run.Output),
			run.StartedAt.UTC().Format(timeLayout), run.Mode,
			run.Entries, run.Bookmarks, run.Hyperlinks, run.Unmatched,
			run.Saved, nullableStringValue(run.Fatal),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting run %s: %w", run.ID, err)
		}

		for i, p := range run.Problems {
			if _, err := problemsStmt.Exec(run.ID, i, p.Kind, p.Message); err != nil {
				return 0, fmt.Errorf("inserting problem %d of %s: %w", i, run.ID, err)
			}
			if _, err := ftsStmt.Exec(run.ID, p.Message); err != nil {
				return 0, fmt.Errorf("inserting fts for %s: %w", run.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(runs), nil
}

// ListRuns returns runs newest first. An empty document lists every
// document; limit <= 0 means no limit.
func (d *DB) ListRuns(ctx context.Context, document string, limit int) ([]Run, error) {
	query := `SELECT ` + selectRunFields + ` FROM runs`
	var args []interface{}

	if document != "" {
		query += " WHERE document = ?"
		args = append(args, document)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetRun retrieves a run by ID, without its problems. It returns nil if
// no such run exists.
func (d *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+selectRunFields+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// Problems returns the problems recorded with a run, in report order.
func (d *DB) Problems(ctx context.Context, runID string) ([]Problem, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT kind, message FROM problems WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing problems: %w", err)
	}
	defer rows.Close()

	var problems []Problem
	for rows.Next() {
		var p Problem
		if err := rows.Scan(&p.Kind, &p.Message); err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

// SearchProblems returns the IDs of runs with a problem message matching
// query, newest first.
func (d *DB) SearchProblems(ctx context.Context, query string, limit int) ([]string, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id FROM runs
		WHERE id IN (SELECT run_id FROM problems_fts WHERE problems_fts MATCH ?)
		ORDER BY started_at DESC
		LIMIT ?`, ftsQuery, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("searching problems: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the total number of runs.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var output, fatal sql.NullString
	var startedAt string

	err := s.Scan(
		&run.ID, &run.Document, &output, &startedAt, &run.Mode,
		&run.Entries, &run.Bookmarks, &run.Hyperlinks, &run.Unmatched,
		&run.Saved, &fatal,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	run.Output = output.String
	run.Fatal = fatal.String
	run.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing start time of %s: %w", run.ID, err)
	}

	return &run, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run != nil {
			runs = append(runs, *run)
		}
	}
	return runs, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// limitOrAll maps a non-positive limit to SQLite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// prepareFTSQuery quotes each term so FTS5 operators in user input are
// matched literally.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	terms := strings.Fields(query)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
