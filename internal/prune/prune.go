// Package prune implements the stale entry pruner: it deletes daily entries
// that were never touched after creation, and optionally aggregate records
// whose mention count stayed zero past a retention window.
package prune

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/scrumroll/internal/notion"
)

// Options configures a Pruner.
type Options struct {
	// EntriesDB references the daily entries database, by ID or exact
	// title. Scanned by the untouched predicate.
	EntriesDB string

	// AggregatesDB references the aggregates database. Scanned by the
	// retention predicate.
	AggregatesDB string

	// Location drives calendar-date arithmetic.
	Location *time.Location

	// Untouched enables deleting entries whose last_edited_time still
	// equals their created_time, excluding today's entry. Template pages
	// nobody filled in keep identical timestamps.
	Untouched bool

	// MaxAgeDays, when positive, enables deleting aggregate records with a
	// zero mention count dated more than this many days ago.
	MaxAgeDays int

	// Property names on the aggregates database.
	CountProperty string
	DateProperty  string

	// DryRun reports matches without deleting.
	DryRun bool
}

// Result summarizes a prune sweep.
type Result struct {
	Scanned int  `json:"scanned"`
	Matched int  `json:"matched"`
	Deleted int  `json:"deleted"`
	Failed  int  `json:"failed"`
	DryRun  bool `json:"dry_run,omitempty"`
}

// Pruner deletes unused entries.
type Pruner struct {
	client *notion.Client
	logger *slog.Logger
	opts   Options
}

// New creates a Pruner.
func New(client *notion.Client, logger *slog.Logger, opts Options) *Pruner {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Pruner{client: client, logger: logger, opts: opts}
}

type candidate struct {
	id     string
	reason string
}

// Run sweeps for unused entries relative to the given moment. Every
// candidate is attempted even when earlier deletions fail; a non-nil error
// reports how many failed.
func (p *Pruner) Run(ctx context.Context, now time.Time) (Result, error) {
	res := Result{DryRun: p.opts.DryRun}

	var candidates []candidate

	if p.opts.Untouched {
		found, scanned, err := p.untouchedEntries(ctx, now)
		if err != nil {
			return res, err
		}
		res.Scanned += scanned
		candidates = append(candidates, found...)
	}

	if p.opts.MaxAgeDays > 0 {
		found, err := p.staleAggregates(ctx, now)
		if err != nil {
			return res, err
		}
		res.Scanned += len(found)
		candidates = append(candidates, found...)
	}

	res.Matched = len(candidates)

	for _, c := range candidates {
		if p.opts.DryRun {
			p.logger.Info("dry run: would delete", "page_id", c.id, "reason", c.reason)
			continue
		}
		if err := p.client.DeleteBlock(ctx, c.id); err != nil {
			res.Failed++
			p.logger.Error("delete failed", "page_id", c.id, "reason", c.reason, "error", err)
			continue
		}
		res.Deleted++
		p.logger.Info("entry deleted", "page_id", c.id, "reason", c.reason)
	}

	p.logger.Info("prune finished",
		"scanned", res.Scanned,
		"matched", res.Matched,
		"deleted", res.Deleted,
		"failed", res.Failed,
	)

	if res.Failed > 0 {
		return res, fmt.Errorf("prune: %d of %d deletions failed", res.Failed, res.Matched)
	}
	return res, nil
}

// untouchedEntries finds daily entries never edited after creation, skipping
// the current calendar date so a freshly templated entry survives until
// tomorrow.
func (p *Pruner) untouchedEntries(ctx context.Context, now time.Time) ([]candidate, int, error) {
	entriesDB, err := p.client.ResolveDatabase(ctx, p.opts.EntriesDB)
	if err != nil {
		return nil, 0, fmt.Errorf("prune: resolve entries database: %w", err)
	}

	pages, err := p.client.QueryDatabaseAll(ctx, entriesDB, notion.QueryRequest{})
	if err != nil {
		return nil, 0, fmt.Errorf("prune: query daily entries: %w", err)
	}

	today := p.dateKey(now)
	var found []candidate
	for _, page := range pages {
		if page.Untouched() && p.dateKey(page.CreatedTime) != today {
			found = append(found, candidate{id: page.ID, reason: "untouched"})
		}
	}
	return found, len(pages), nil
}

// staleAggregates finds aggregate records with a zero mention count dated
// before the retention cutoff. Both conditions are evaluated server-side.
func (p *Pruner) staleAggregates(ctx context.Context, now time.Time) ([]candidate, error) {
	aggregatesDB, err := p.client.ResolveDatabase(ctx, p.opts.AggregatesDB)
	if err != nil {
		return nil, fmt.Errorf("prune: resolve aggregates database: %w", err)
	}

	cutoff := now.In(p.opts.Location).AddDate(0, 0, -p.opts.MaxAgeDays).Format("2006-01-02")
	pages, err := p.client.QueryDatabaseAll(ctx, aggregatesDB, notion.QueryRequest{
		Filter: &notion.Filter{And: []notion.Filter{
			{Property: p.opts.CountProperty, Number: notion.NumberEquals(0)},
			{Property: p.opts.DateProperty, Date: &notion.DateFilter{Before: cutoff}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("prune: query stale aggregates: %w", err)
	}

	found := make([]candidate, len(pages))
	for i, page := range pages {
		found[i] = candidate{id: page.ID, reason: "stale"}
	}
	return found, nil
}

func (p *Pruner) dateKey(t time.Time) string {
	return t.In(p.opts.Location).Format("2006-01-02")
}
