// Package journal persists job run history in SQLite. It uses
// modernc.org/sqlite (pure Go, no CGO) with WAL mode. The journal is
// operational history for status surfaces; jobs never read it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const defaultBusyTimeout = 5000

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run triggers.
const (
	TriggerCLI     = "cli"
	TriggerCron    = "cron"
	TriggerGateway = "gateway"
	TriggerMCP     = "mcp"
)

// Run is one recorded job execution.
type Run struct {
	ID         int64     `json:"id"`
	Job        string    `json:"job"`
	Trigger    string    `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`
	DryRun     bool      `json:"dry_run,omitempty"`
	Scanned    int       `json:"scanned"`
	Matched    int       `json:"matched"`
	Written    int       `json:"written"`
	Deleted    int       `json:"deleted"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

// Duration returns the run's wall-clock duration.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store is a SQLite-backed run journal.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
//
// The database is created with WAL mode, a 5 s busy timeout, and a single
// connection (SQLite serialises writes). The schema is migrated
// automatically.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("journal: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: set busy_timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
