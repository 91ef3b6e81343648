// Package state persists dispatch history across runs in a local SQLite
// database. Written by dispatch, read by the status command.
package state

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Vijaysplendor/migaccel/internal/dispatch"
)

// Status constants for persistent dispatch state.
const (
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusInProgress = "in_progress"
)

// Dispatch is one row of dispatch history.
type Dispatch struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	FailedStep string
	ExitCode   int
	RunDir     string
}

// StepRow is the persisted outcome of a single step.
type StepRow struct {
	DispatchID string
	Name       string
	State      string
	Duration   time.Duration
	Error      string
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the history database path under the state directory.
func DefaultPath(stateDir string) string {
	return filepath.Join(stateDir, "history.db")
}

const schema = `
CREATE TABLE IF NOT EXISTS dispatches (
	id          TEXT PRIMARY KEY,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	status      TEXT NOT NULL,
	failed_step TEXT NOT NULL DEFAULT '',
	exit_code   INTEGER NOT NULL DEFAULT 0,
	run_dir     TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS steps (
	dispatch_id TEXT NOT NULL,
	name        TEXT NOT NULL,
	state       TEXT NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (dispatch_id, name)
);
`

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Begin records a dispatch as in progress.
func (s *Store) Begin(id, runDir string, startedAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO dispatches (id, started_at, status, run_dir) VALUES (?, ?, ?, ?)`,
		id, startedAt, StatusInProgress, runDir)
	if err != nil {
		return fmt.Errorf("record dispatch start: %w", err)
	}
	return nil
}

// Finish records the terminal state of a dispatch.
func (s *Store) Finish(id, status, failedStep string, exitCode int) error {
	_, err := s.db.Exec(
		`UPDATE dispatches SET finished_at = ?, status = ?, failed_step = ?, exit_code = ? WHERE id = ?`,
		time.Now(), status, failedStep, exitCode, id)
	if err != nil {
		return fmt.Errorf("record dispatch finish: %w", err)
	}
	return nil
}

// RecordStep upserts a step outcome for the dispatch.
func (s *Store) RecordStep(dispatchID string, r dispatch.StepResult) error {
	_, err := s.db.Exec(
		`INSERT INTO steps (dispatch_id, name, state, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (dispatch_id, name) DO UPDATE SET
		 state = excluded.state, duration_ms = excluded.duration_ms, error = excluded.error`,
		dispatchID, r.Name, r.State.String(), r.Duration.Milliseconds(), r.Error)
	if err != nil {
		return fmt.Errorf("record step %s: %w", r.Name, err)
	}
	return nil
}

// Recent returns the latest n dispatches, newest first. An in-progress
// dispatch has no finished_at yet; it reports FinishedAt == StartedAt.
func (s *Store) Recent(n int) ([]Dispatch, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, status, failed_step, exit_code, run_dir
		 FROM dispatches ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Dispatch
	for rows.Next() {
		var d Dispatch
		var finished sql.NullTime
		if err := rows.Scan(&d.ID, &d.StartedAt, &finished, &d.Status, &d.FailedStep, &d.ExitCode, &d.RunDir); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		d.FinishedAt = d.StartedAt
		if finished.Valid {
			d.FinishedAt = finished.Time
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Steps returns the recorded step outcomes of a dispatch in recorded order.
func (s *Store) Steps(dispatchID string) ([]StepRow, error) {
	rows, err := s.db.Query(
		`SELECT dispatch_id, name, state, duration_ms, error FROM steps WHERE dispatch_id = ? ORDER BY rowid`,
		dispatchID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StepRow
	for rows.Next() {
		var r StepRow
		var ms int64
		if err := rows.Scan(&r.DispatchID, &r.Name, &r.State, &ms, &r.Error); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
