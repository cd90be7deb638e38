package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/flemzord/scrumroll/internal/aggregate"
	"github.com/flemzord/scrumroll/internal/config"
	"github.com/flemzord/scrumroll/internal/daemon"
	"github.com/flemzord/scrumroll/internal/journal"
	"github.com/flemzord/scrumroll/internal/prune"
)

// newRecorder opens the run journal for a one-shot command. When the journal
// cannot be opened the run still proceeds, unrecorded; one-shot jobs must
// work on hosts without a writable data directory.
func newRecorder(cfg *config.Config, logger *slog.Logger) (*daemon.Recorder, func()) {
	rec := &daemon.Recorder{Logger: logger}

	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		logger.Warn("journal unavailable, run will not be recorded", "error", err)
		return rec, func() {}
	}
	rec.Journal = store
	return rec, func() { _ = store.Close() }
}

func aggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate project mentions into the daily record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			dateStr, _ := cmd.Flags().GetString("date")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			backfill, _ := cmd.Flags().GetBool("backfill")

			day := time.Now().In(cfg.Location())
			if dateStr != "" {
				parsed, err := time.ParseInLocation("2006-01-02", dateStr, cfg.Location())
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", dateStr)
				}
				day = parsed
			}

			rec, closeRec := newRecorder(cfg, logger)
			defer closeRec()
			agg := aggregate.New(daemon.NewClient(cfg), logger, daemon.AggregateOptions(cfg, dryRun))

			if backfill {
				results, err := rec.RunBackfill(cmd.Context(), journal.TriggerCLI, agg)
				if err != nil {
					return err
				}
				for _, res := range results {
					printAggregateResult(res)
				}
				fmt.Printf("backfilled %d dates\n", len(results))
				return nil
			}

			res, err := rec.RunAggregate(cmd.Context(), journal.TriggerCLI, agg, day)
			if err != nil {
				return err
			}
			printAggregateResult(res)
			return nil
		},
	}
	cmd.Flags().String("date", "", "Target date (YYYY-MM-DD), default today")
	cmd.Flags().Bool("dry-run", false, "Report without writing")
	cmd.Flags().Bool("backfill", false, "Aggregate every date with entries")
	return cmd
}

func printAggregateResult(res aggregate.Result) {
	verb := "unchanged"
	switch {
	case res.Skipped:
		verb = "skipped (no mentions)"
	case res.Created:
		verb = "created"
	case res.Updated:
		verb = "updated"
	}
	if res.DryRun && !res.Skipped {
		verb = "would be " + verb
	}
	fmt.Printf("%s: %d mentions in %d entries (%d projects), record %s\n",
		res.Date, res.Mentions, res.Entries, res.Projects, verb)
}

func pruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete unused daily entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			dryRun, _ := cmd.Flags().GetBool("dry-run")

			rec, closeRec := newRecorder(cfg, logger)
			defer closeRec()
			p := prune.New(daemon.NewClient(cfg), logger, daemon.PruneOptions(cfg, dryRun))

			res, err := rec.RunPrune(cmd.Context(), journal.TriggerCLI, p, time.Now().In(cfg.Location()))
			if err != nil {
				return err
			}

			if res.DryRun {
				fmt.Printf("scanned %d, would delete %d\n", res.Scanned, res.Matched)
				return nil
			}
			fmt.Printf("scanned %d, deleted %d of %d matched\n", res.Scanned, res.Deleted, res.Matched)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "Report matches without deleting")
	return cmd
}
