// Package aggregate implements the mention aggregator: it scans a date's
// daily entries for project mentions and upserts exactly one aggregate
// record for that date in the target database.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/scrumroll/internal/notion"
	"github.com/flemzord/scrumroll/internal/scan"
)

// Options configures an Aggregator.
type Options struct {
	// EntriesDB, ProjectsDB, and AggregatesDB reference databases by ID or
	// exact title.
	EntriesDB    string
	ProjectsDB   string
	AggregatesDB string

	// Location drives calendar-date arithmetic. TimeZoneName, when set, is
	// the IANA name stamped on date mentions.
	Location     *time.Location
	TimeZoneName string

	// Property names on the aggregates database.
	TitleProperty    string
	DateProperty     string
	CountProperty    string
	ProjectsProperty string

	// SkipEmpty suppresses the record for dates with zero mentions.
	SkipEmpty bool

	// DryRun reports what would change without writing anything.
	DryRun bool
}

// Result summarizes the aggregation of one date.
type Result struct {
	Date     string `json:"date"`
	Entries  int    `json:"entries"`
	Mentions int    `json:"mentions"`
	Projects int    `json:"projects"`
	Created  bool   `json:"created,omitempty"`
	Updated  bool   `json:"updated,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Deduped  int    `json:"deduped,omitempty"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

// Written returns how many aggregate records the run created or updated.
func (r Result) Written() int {
	if r.Created || r.Updated {
		return 1
	}
	return 0
}

// Aggregator rolls daily-entry project mentions up into per-date aggregate
// records.
type Aggregator struct {
	client *notion.Client
	logger *slog.Logger
	opts   Options
}

// New creates an Aggregator.
func New(client *notion.Client, logger *slog.Logger, opts Options) *Aggregator {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Aggregator{client: client, logger: logger, opts: opts}
}

type databases struct {
	entries    string
	projects   string
	aggregates string
}

func (a *Aggregator) resolve(ctx context.Context) (databases, error) {
	var dbs databases
	var err error

	if dbs.entries, err = a.client.ResolveDatabase(ctx, a.opts.EntriesDB); err != nil {
		return dbs, fmt.Errorf("aggregate: resolve entries database: %w", err)
	}
	if dbs.projects, err = a.client.ResolveDatabase(ctx, a.opts.ProjectsDB); err != nil {
		return dbs, fmt.Errorf("aggregate: resolve projects database: %w", err)
	}
	if dbs.aggregates, err = a.client.ResolveDatabase(ctx, a.opts.AggregatesDB); err != nil {
		return dbs, fmt.Errorf("aggregate: resolve aggregates database: %w", err)
	}
	return dbs, nil
}

// dateKey formats a moment as its calendar date in the configured zone.
func (a *Aggregator) dateKey(t time.Time) string {
	return t.In(a.opts.Location).Format("2006-01-02")
}

// Run aggregates the calendar date containing the given moment.
func (a *Aggregator) Run(ctx context.Context, date time.Time) (Result, error) {
	dbs, err := a.resolve(ctx)
	if err != nil {
		return Result{}, err
	}

	year, month, day := date.In(a.opts.Location).Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, a.opts.Location)
	end := start.AddDate(0, 0, 1)

	entries, err := a.entriesBetween(ctx, dbs.entries, start, end)
	if err != nil {
		return Result{}, err
	}

	projects, err := a.trackedProjects(ctx, dbs.projects)
	if err != nil {
		return Result{}, err
	}

	return a.aggregateEntries(ctx, dbs.aggregates, a.dateKey(start), entries, projects)
}

// Backfill aggregates every calendar date that has at least one daily
// entry, newest date first.
func (a *Aggregator) Backfill(ctx context.Context) ([]Result, error) {
	dbs, err := a.resolve(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := a.client.QueryDatabaseAll(ctx, dbs.entries, notion.QueryRequest{
		Sorts: []notion.Sort{{Timestamp: "created_time", Direction: "descending"}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: list daily entries: %w", err)
	}

	projects, err := a.trackedProjects(ctx, dbs.projects)
	if err != nil {
		return nil, err
	}

	var dates []string
	grouped := map[string][]notion.Page{}
	for _, entry := range entries {
		key := a.dateKey(entry.CreatedTime)
		if _, ok := grouped[key]; !ok {
			dates = append(dates, key)
		}
		grouped[key] = append(grouped[key], entry)
	}

	a.logger.Info("backfill started", "entries", len(entries), "dates", len(dates))

	results := make([]Result, 0, len(dates))
	for _, key := range dates {
		res, err := a.aggregateEntries(ctx, dbs.aggregates, key, grouped[key], projects)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// entriesBetween fetches daily entries created in [start, end), filtered
// server-side on the created_time timestamp and double-checked against the
// local calendar date.
func (a *Aggregator) entriesBetween(ctx context.Context, entriesDB string, start, end time.Time) ([]notion.Page, error) {
	pages, err := a.client.QueryDatabaseAll(ctx, entriesDB, notion.QueryRequest{
		Filter: &notion.Filter{And: []notion.Filter{
			{Timestamp: "created_time", CreatedTime: &notion.DateFilter{OnOrAfter: start.Format(time.RFC3339)}},
			{Timestamp: "created_time", CreatedTime: &notion.DateFilter{Before: end.Format(time.RFC3339)}},
		}},
		Sorts: []notion.Sort{{Timestamp: "created_time", Direction: "ascending"}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: query daily entries: %w", err)
	}

	key := a.dateKey(start)
	var entries []notion.Page
	for _, page := range pages {
		if a.dateKey(page.CreatedTime) == key {
			entries = append(entries, page)
		}
	}
	return entries, nil
}

// trackedProjects returns all project page IDs in database order.
func (a *Aggregator) trackedProjects(ctx context.Context, projectsDB string) ([]string, error) {
	pages, err := a.client.QueryDatabaseAll(ctx, projectsDB, notion.QueryRequest{})
	if err != nil {
		return nil, fmt.Errorf("aggregate: query projects: %w", err)
	}

	ids := make([]string, len(pages))
	for i, page := range pages {
		ids[i] = page.ID
	}
	return ids, nil
}

// aggregateEntries scans the date's entries and upserts its aggregate
// record.
func (a *Aggregator) aggregateEntries(ctx context.Context, aggregatesDB, date string, entries []notion.Page, projects []string) (Result, error) {
	d := newDigest(projects, a.opts.Location, a.opts.TimeZoneName)

	for _, entry := range entries {
		blocks, err := a.client.ChildrenTree(ctx, entry.ID)
		if err != nil {
			return Result{}, fmt.Errorf("aggregate: fetch entry %s blocks: %w", entry.ID, err)
		}
		result, err := scan.Scan(blocks, projects)
		if err != nil {
			return Result{}, fmt.Errorf("aggregate: scan entry %s: %w", entry.ID, err)
		}
		d.addEntry(entry.CreatedTime, result)
	}

	res := Result{
		Date:     date,
		Entries:  len(entries),
		Mentions: d.total(),
		Projects: len(d.projectIDs()),
		DryRun:   a.opts.DryRun,
	}

	a.logger.Info("date scanned",
		"date", date,
		"entries", res.Entries,
		"mentions", res.Mentions,
		"projects", res.Projects,
	)

	if res.Mentions == 0 && a.opts.SkipEmpty {
		res.Skipped = true
		a.logger.Info("empty date skipped", "date", date)
		return res, nil
	}

	if err := a.upsert(ctx, aggregatesDB, date, d, &res); err != nil {
		return res, err
	}
	return res, nil
}

// upsert creates or updates the single aggregate record for the date. Extra
// records for the same date violate the one-per-date invariant and are
// folded away by archiving.
func (a *Aggregator) upsert(ctx context.Context, aggregatesDB, date string, d *digest, res *Result) error {
	properties := map[string]notion.PropertyValue{
		a.opts.TitleProperty:    notion.TitleProperty(date),
		a.opts.DateProperty:     notion.DateProperty(date),
		a.opts.CountProperty:    notion.NumberProperty(float64(d.total())),
		a.opts.ProjectsProperty: notion.RelationProperty(d.projectIDs()),
	}
	body := d.body()

	existing, err := a.client.QueryDatabaseAll(ctx, aggregatesDB, notion.QueryRequest{
		Filter: &notion.Filter{Property: a.opts.DateProperty, Date: &notion.DateFilter{Equals: date}},
		Sorts:  []notion.Sort{{Timestamp: "created_time", Direction: "ascending"}},
	})
	if err != nil {
		return fmt.Errorf("aggregate: query aggregate records for %s: %w", date, err)
	}

	if len(existing) == 0 {
		if a.opts.DryRun {
			res.Created = true
			a.logger.Info("dry run: would create aggregate record", "date", date)
			return nil
		}
		return a.create(ctx, aggregatesDB, date, properties, body, res)
	}

	record := existing[0]
	extras := existing[1:]

	if len(extras) > 0 {
		a.logger.Warn("duplicate aggregate records for date", "date", date, "count", len(existing))
	}

	if a.opts.DryRun {
		res.Updated = true
		res.Deduped = len(extras)
		a.logger.Info("dry run: would update aggregate record", "date", date, "page_id", record.ID)
		return nil
	}

	for _, extra := range extras {
		if err := a.client.DeleteBlock(ctx, extra.ID); err != nil {
			return fmt.Errorf("aggregate: archive duplicate record %s: %w", extra.ID, err)
		}
		res.Deduped++
	}

	return a.update(ctx, record, date, properties, body, res)
}

func (a *Aggregator) create(ctx context.Context, aggregatesDB, date string, properties map[string]notion.PropertyValue, body []notion.Block, res *Result) error {
	// The create endpoint caps children at 100; overflow is appended.
	first := body
	var rest []notion.Block
	if len(first) > 100 {
		first, rest = body[:100], body[100:]
	}

	page, err := a.client.CreatePage(ctx, notion.CreatePageRequest{
		Parent:     notion.Parent{Type: "database_id", DatabaseID: aggregatesDB},
		Properties: properties,
		Children:   first,
	})
	if err != nil {
		return fmt.Errorf("aggregate: create aggregate record for %s: %w", date, err)
	}
	if len(rest) > 0 {
		if err := a.client.AppendChildren(ctx, page.ID, rest); err != nil {
			return fmt.Errorf("aggregate: append aggregate body for %s: %w", date, err)
		}
	}

	res.Created = true
	a.logger.Info("aggregate record created", "date", date, "page_id", page.ID)
	return nil
}

// update replaces the record's properties and body. The previous body is
// archived block by block before the fresh digest is appended, so reruns
// converge instead of accreting.
func (a *Aggregator) update(ctx context.Context, record notion.Page, date string, properties map[string]notion.PropertyValue, body []notion.Block, res *Result) error {
	if _, err := a.client.UpdatePage(ctx, record.ID, notion.UpdatePageRequest{Properties: properties}); err != nil {
		return fmt.Errorf("aggregate: update aggregate record for %s: %w", date, err)
	}

	old, err := a.client.BlockChildrenAll(ctx, record.ID)
	if err != nil {
		return fmt.Errorf("aggregate: list old aggregate body for %s: %w", date, err)
	}
	for _, block := range old {
		if err := a.client.DeleteBlock(ctx, block.ID); err != nil {
			return fmt.Errorf("aggregate: remove old aggregate block %s: %w", block.ID, err)
		}
	}

	if err := a.client.AppendChildren(ctx, record.ID, body); err != nil {
		return fmt.Errorf("aggregate: append aggregate body for %s: %w", date, err)
	}

	res.Updated = true
	a.logger.Info("aggregate record updated", "date", date, "page_id", record.ID, "replaced_blocks", len(old))
	return nil
}
