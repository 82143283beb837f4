// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state persists pipeline checkpoints and the append-only run
// history in a local SQLite database.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// Store manages the checkpoint/audit SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at cfg.DBPath, creating the schema and
// parent directory when missing.
func Open(cfg types.StateConfig) (*Store, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = filepath.Join("state", "enrich.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state schema: %w", err)
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
			pipeline TEXT NOT NULL,
			started TEXT NOT NULL,
			finished TEXT,
			status TEXT NOT NULL,
			added INTEGER NOT NULL DEFAULT 0,
			updated INTEGER NOT NULL DEFAULT 0,
			detail TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_pipeline ON runs(pipeline, started)`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			pipeline TEXT PRIMARY KEY,
			last_slug TEXT NOT NULL,
			processed INTEGER NOT NULL DEFAULT 0,
			added INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StartRun inserts a new run row with status running and returns it.
func (s *Store) StartRun(ctx context.Context, pipeline string) (*types.Run, error) {
	run := &types.Run{
		ID:       uuid.NewString(),
		Pipeline: pipeline,
		Started:  time.Now().UTC(),
		Status:   types.RunRunning,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, pipeline, started, status) VALUES (?, ?, ?, ?)`,
		run.ID, run.Pipeline, run.Started.Format(time.RFC3339Nano), string(run.Status))
	if err != nil {
		return nil, fmt.Errorf("recording run start: %w", err)
	}
	return run, nil
}

// FinishRun finalizes a run exactly once. A second finalize attempt for the
// same run is an error: the history is append-only and terminal rows are
// immutable.
func (s *Store) FinishRun(ctx context.Context, run *types.Run, status types.RunStatus, added, updated int, detail string) error {
	run.Status = status
	run.Added = added
	run.Updated = updated
	run.Detail = detail
	run.Finished = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished = ?, status = ?, added = ?, updated = ?, detail = ?
		 WHERE id = ? AND status = ?`,
		run.Finished.Format(time.RFC3339Nano), string(status), added, updated, detail,
		run.ID, string(types.RunRunning))
	if err != nil {
		return fmt.Errorf("recording run end: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s already finalized", run.ID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pipeline, started, finished, status, added, updated, detail
		 FROM runs ORDER BY started DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		var r types.Run
		var started string
		var finished, detail sql.NullString
		var status string
		if err := rows.Scan(&r.ID, &r.Pipeline, &started, &finished, &status, &r.Added, &r.Updated, &detail); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.Status = types.RunStatus(status)
		r.Detail = detail.String
		if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
			r.Started = t
		}
		if finished.Valid {
			if t, err := time.Parse(time.RFC3339Nano, finished.String); err == nil {
				r.Finished = t
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadCheckpoint returns the checkpoint for a pipeline, or nil when no
// batch has completed yet.
func (s *Store) LoadCheckpoint(ctx context.Context, pipeline string) (*types.Checkpoint, error) {
	var cp types.Checkpoint
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT pipeline, last_slug, processed, added, updated_at FROM checkpoints WHERE pipeline = ?`,
		pipeline).Scan(&cp.Pipeline, &cp.LastSlug, &cp.Processed, &cp.Added, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		cp.UpdatedAt = t
	}
	return &cp, nil
}

// SaveCheckpoint overwrites the pipeline's checkpoint with the batch's last
// processed slug and cumulative totals.
func (s *Store) SaveCheckpoint(ctx context.Context, cp *types.Checkpoint) error {
	cp.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (pipeline, last_slug, processed, added, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(pipeline) DO UPDATE SET
			last_slug = excluded.last_slug,
			processed = excluded.processed,
			added = excluded.added,
			updated_at = excluded.updated_at`,
		cp.Pipeline, cp.LastSlug, cp.Processed, cp.Added, cp.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}
