package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoRuns indicates the journal has no run recorded for the job.
var ErrNoRuns = errors.New("journal: no runs recorded")

// Record appends a finished run and returns its assigned ID.
func (s *Store) Record(ctx context.Context, run Run) (int64, error) {
	dryRun := 0
	if run.DryRun {
		dryRun = 1
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (job, trigger_by, started_at, finished_at, status, dry_run,
		                  scanned, matched, written, deleted, failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Job, run.Trigger,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Status, dryRun,
		run.Scanned, run.Matched, run.Written, run.Deleted, run.Failed,
		run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("journal: record run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal: last insert id: %w", err)
	}
	return id, nil
}

// Recent returns the most recent runs, newest first. An empty job matches
// all jobs.
func (s *Store) Recent(ctx context.Context, job string, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT id, job, trigger_by, started_at, finished_at, status, dry_run,
		       scanned, matched, written, deleted, failed, error
		FROM runs`
	args := []any{}
	if job != "" {
		query += " WHERE job = ?"
		args = append(args, job)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRuns(rows)
}

// LastRun returns the most recent run of a job, or ErrNoRuns.
func (s *Store) LastRun(ctx context.Context, job string) (Run, error) {
	runs, err := s.Recent(ctx, job, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("%w: %s", ErrNoRuns, job)
	}
	return runs[0], nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			run         Run
			dryRun      int
			startedStr  string
			finishedStr string
		)

		if err := rows.Scan(&run.ID, &run.Job, &run.Trigger, &startedStr, &finishedStr,
			&run.Status, &dryRun,
			&run.Scanned, &run.Matched, &run.Written, &run.Deleted, &run.Failed,
			&run.Error); err != nil {
			return nil, fmt.Errorf("journal: scan run: %w", err)
		}

		run.DryRun = dryRun != 0

		started, err := time.Parse(time.RFC3339Nano, startedStr)
		if err != nil {
			return nil, fmt.Errorf("journal: parse started_at %q: %w", startedStr, err)
		}
		run.StartedAt = started

		finished, err := time.Parse(time.RFC3339Nano, finishedStr)
		if err != nil {
			return nil, fmt.Errorf("journal: parse finished_at %q: %w", finishedStr, err)
		}
		run.FinishedAt = finished

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate runs: %w", err)
	}
	return runs, nil
}
