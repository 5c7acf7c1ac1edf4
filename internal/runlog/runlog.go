// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog keeps a local SQLite history of extraction runs so a
// researcher can see which files a past run produced.
package runlog

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/treextract/pkg/types"
)

const dbFile = "extractions.db"

// DefaultDir holds the history database when no directory is configured.
const DefaultDir = ".treextract"

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at cfg.Dir/extractions.db,
// creating the directory and the schema as needed.
func Open(cfg types.RunLogConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run log directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening run log database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run log schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			input TEXT NOT NULL,
			format TEXT NOT NULL,
			prefix TEXT,
			tree_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			run_id TEXT NOT NULL REFERENCES runs(id),
			name TEXT NOT NULL,
			path TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_files_run_id ON files(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is one recorded extraction.
type Run struct {
	ID        string
	Input     string
	Format    string
	Prefix    string
	TreeCount int
	CreatedAt time.Time
	Files     []RunFile
}

// RunFile is one output file of a recorded run.
type RunFile struct {
	Name string
	Path string
}

// Record inserts run and its files in one transaction. A fresh id is
// assigned and the stored run is returned.
func (s *Store) Record(run Run) (Run, error) {
	run.ID = uuid.NewString()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return run, fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO runs (id, input, format, prefix, tree_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Input, run.Format, run.Prefix, run.TreeCount,
		run.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		tx.Rollback()
		return run, fmt.Errorf("inserting run: %w", err)
	}

	for _, f := range run.Files {
		if _, err := tx.Exec(
			`INSERT INTO files (run_id, name, path) VALUES (?, ?, ?)`,
			run.ID, f.Name, f.Path,
		); err != nil {
			tx.Rollback()
			return run, fmt.Errorf("inserting run file: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return run, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}

// Runs returns every recorded run, newest first, with its files in
// insertion order.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, input, format, prefix, tree_count, created_at FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.Input, &r.Format, &r.Prefix, &r.TreeCount, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parsing run timestamp %q: %w", created, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		if runs[i].Files, err = s.runFiles(runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) runFiles(runID string) ([]RunFile, error) {
	rows, err := s.db.Query(`SELECT name, path FROM files WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run files: %w", err)
	}
	defer rows.Close()

	var files []RunFile
	for rows.Next() {
		var f RunFile
		if err := rows.Scan(&f.Name, &f.Path); err != nil {
			return nil, fmt.Errorf("scanning run file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// List prints the recorded runs to w, newest first.
func (s *Store) List(w io.Writer) error {
	runs, err := s.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no recorded runs")
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-10s %3d trees  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Format, r.TreeCount, r.Input)
		for _, f := range r.Files {
			fmt.Fprintf(w, "    %s\n", f.Path)
		}
	}
	return nil
}
