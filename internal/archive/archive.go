// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive records filter runs and the notes they kept in a local
// SQLite database, so earlier extracts can be listed and reloaded without
// re-reading the source export.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/osn-filter/internal/filter"
	"github.com/pdiddy/osn-filter/pkg/types"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Archive manages the run archive database.
type Archive struct {
	db *sql.DB
}

// Run is one archived filter run.
type Run struct {
	ID              string    `json:"id" yaml:"id"`
	Source          string    `json:"source" yaml:"source"`
	FilteredAt      time.Time `json:"filtered_at" yaml:"filtered_at"`
	InitialCreation string    `json:"initial_creation,omitempty" yaml:"initial_creation,omitempty"`
	FinalCreation   string    `json:"final_creation,omitempty" yaml:"final_creation,omitempty"`
	BoundingBox     string    `json:"bbox,omitempty" yaml:"bbox,omitempty"`
	Total           int       `json:"total" yaml:"total"`
	Kept            int       `json:"kept" yaml:"kept"`
}

// Open opens or creates the archive database at cfg.DBPath and creates the
// schema if it does not exist.
func Open(cfg types.ArchiveConfig) (*Archive, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("archive database path is empty")
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &Archive{db: db}
	if err := a.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return a, nil
}

// Close releases the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			filtered_at TEXT NOT NULL,
			initial_creation TEXT,
			final_creation TEXT,
			bbox TEXT,
			total INTEGER NOT NULL,
			kept INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			note_id TEXT,
			lat TEXT,
			lon TEXT,
			created_at TEXT,
			closed_at TEXT,
			attrs TEXT,
			comments TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_filtered_at ON runs(filtered_at)`,
	}

	for _, stmt := range statements {
		if _, err := a.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores one run and its kept notes in a single transaction and
// returns the stored run with its generated ID.
func (a *Archive) Record(ctx context.Context, source string, c filter.Criteria, total int, kept []types.Note) (Run, error) {
	run := Run{
		ID:              uuid.New().String(),
		Source:          source,
		FilteredAt:      time.Now().UTC(),
		InitialCreation: c.InitialCreation.Value,
		FinalCreation:   c.FinalCreation.Value,
		BoundingBox:     c.BoundingBox.Value,
		Total:           total,
		Kept:            len(kept),
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, filtered_at, initial_creation, final_creation, bbox, total, kept)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.FilteredAt.Format(timeLayout),
		nullable(c.InitialCreation), nullable(c.FinalCreation), nullable(c.BoundingBox),
		run.Total, run.Kept,
	)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO notes (run_id, position, note_id, lat, lon, created_at, closed_at, attrs, comments)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range kept {
		attrsJSON, err := json.Marshal(n.Attrs)
		if err != nil {
			return Run{}, fmt.Errorf("encoding attrs of note %d: %w", i, err)
		}
		commentsJSON, err := json.Marshal(n.Comments)
		if err != nil {
			return Run{}, fmt.Errorf("encoding comments of note %d: %w", i, err)
		}
		_, err = stmt.ExecContext(ctx,
			run.ID, i, n.ID, n.Lat, n.Lon, n.CreatedAt, n.ClosedAt,
			string(attrsJSON), string(commentsJSON),
		)
		if err != nil {
			return Run{}, fmt.Errorf("inserting note %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}

// Runs lists archived runs, newest first. A limit of 0 or less lists all.
func (a *Archive) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, source, filtered_at, initial_creation, final_creation, bbox, total, kept
		FROM runs ORDER BY filtered_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                        Run
			filteredAt               string
			initial, final, boundBox sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Source, &filteredAt, &initial, &final, &boundBox, &r.Total, &r.Kept); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		at, err := time.Parse(timeLayout, filteredAt)
		if err != nil {
			return nil, fmt.Errorf("run %s filtered_at %q: %w", r.ID, filteredAt, err)
		}
		r.FilteredAt = at
		r.InitialCreation = initial.String
		r.FinalCreation = final.String
		r.BoundingBox = boundBox.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Notes returns the notes kept by a run, in their original order.
func (a *Archive) Notes(ctx context.Context, runID string) ([]types.Note, error) {
	var exists int
	if err := a.db.QueryRowContext(ctx, `SELECT count(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("looking up run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("run %s not found", runID)
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT note_id, lat, lon, created_at, closed_at, attrs, comments
		 FROM notes WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	notes := []types.Note{}
	for rows.Next() {
		var (
			n                      types.Note
			attrsJSON, commentJSON string
		)
		if err := rows.Scan(&n.ID, &n.Lat, &n.Lon, &n.CreatedAt, &n.ClosedAt, &attrsJSON, &commentJSON); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		if err := json.Unmarshal([]byte(attrsJSON), &n.Attrs); err != nil {
			return nil, fmt.Errorf("decoding attrs of note %s: %w", n.ID, err)
		}
		if err := json.Unmarshal([]byte(commentJSON), &n.Comments); err != nil {
			return nil, fmt.Errorf("decoding comments of note %s: %w", n.ID, err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Delete removes a run and the notes it kept.
func (a *Archive) Delete(ctx context.Context, runID string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("deleting notes of run %s: %w", runID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("deleting run %s: %w", runID, err)
	}
	return tx.Commit()
}

func nullable(p filter.Param) sql.NullString {
	return sql.NullString{String: p.Value, Valid: p.Set}
}
