package daemon

import (
	"context"
	"time"

	"github.com/flemzord/scrumroll/internal/aggregate"
	"github.com/flemzord/scrumroll/internal/config"
	"github.com/flemzord/scrumroll/internal/prune"
)

// Job names as they appear on schedules, journal rows, and gateway routes.
const (
	JobAggregate = "aggregate"
	JobPrune     = "prune"
)

func (d *Daemon) runAggregate(ctx context.Context, trigger string) error {
	agg := aggregate.New(d.client, d.logger, AggregateOptions(d.cfg, false))
	_, err := d.recorder.RunAggregate(ctx, trigger, agg, time.Now().In(d.cfg.Location()))
	return err
}

func (d *Daemon) runPrune(ctx context.Context, trigger string) error {
	p := prune.New(d.client, d.logger, PruneOptions(d.cfg, false))
	_, err := d.recorder.RunPrune(ctx, trigger, p, time.Now().In(d.cfg.Location()))
	return err
}

// AggregateOptions maps configuration onto aggregator options.
func AggregateOptions(cfg *config.Config, dryRun bool) aggregate.Options {
	return aggregate.Options{
		EntriesDB:        cfg.Databases.Entries,
		ProjectsDB:       cfg.Databases.Projects,
		AggregatesDB:     cfg.Databases.Aggregates,
		Location:         cfg.Location(),
		TimeZoneName:     cfg.Timezone,
		TitleProperty:    cfg.Aggregate.Properties.Title,
		DateProperty:     cfg.Aggregate.Properties.Date,
		CountProperty:    cfg.Aggregate.Properties.Count,
		ProjectsProperty: cfg.Aggregate.Properties.Projects,
		SkipEmpty:        cfg.Aggregate.SkipEmpty,
		DryRun:           dryRun,
	}
}

// PruneOptions maps configuration onto pruner options.
func PruneOptions(cfg *config.Config, dryRun bool) prune.Options {
	return prune.Options{
		EntriesDB:     cfg.Databases.Entries,
		AggregatesDB:  cfg.Databases.Aggregates,
		Location:      cfg.Location(),
		Untouched:     cfg.Prune.UntouchedEnabled(),
		MaxAgeDays:    cfg.Prune.MaxAgeDays,
		CountProperty: cfg.Aggregate.Properties.Count,
		DateProperty:  cfg.Aggregate.Properties.Date,
		DryRun:        dryRun,
	}
}
