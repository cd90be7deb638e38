package daemon

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/scrumroll/internal/aggregate"
	"github.com/flemzord/scrumroll/internal/gateway"
	"github.com/flemzord/scrumroll/internal/journal"
	"github.com/flemzord/scrumroll/internal/metrics"
	"github.com/flemzord/scrumroll/internal/prune"
)

var tracer = otel.Tracer("github.com/flemzord/scrumroll/internal/daemon")

// journalWriteTimeout bounds the outcome write so a canceled job context
// cannot lose its journal row.
const journalWriteTimeout = 5 * time.Second

// EventPublisher receives job lifecycle events. Satisfied by
// *gateway.EventHub.
type EventPublisher interface {
	Publish(gateway.Event)
}

// Recorder executes jobs and persists their outcome: a journal row, run
// metrics, a span, and lifecycle events for stream subscribers. It is
// shared by the scheduler, the one-shot CLI commands, and the MCP tools.
// Events is nil for one-shot runs.
type Recorder struct {
	Journal *journal.Store
	Events  EventPublisher
	Logger  *slog.Logger
}

// RunAggregate aggregates one date and records the run.
func (r *Recorder) RunAggregate(ctx context.Context, trigger string, agg *aggregate.Aggregator, date time.Time) (aggregate.Result, error) {
	ctx, span := tracer.Start(ctx, "job.aggregate",
		trace.WithAttributes(attribute.String("job.trigger", trigger)))
	defer span.End()

	run := r.start(JobAggregate, trigger)
	res, err := agg.Run(ctx, date)

	run.DryRun = res.DryRun
	run.Scanned = res.Entries
	run.Matched = res.Mentions
	run.Written = res.Written()
	r.finish(span, &run, err)
	metrics.RecordWritten(run.Written)
	return res, err
}

// RunBackfill aggregates every date with entries and records the sweep as
// one run.
func (r *Recorder) RunBackfill(ctx context.Context, trigger string, agg *aggregate.Aggregator) ([]aggregate.Result, error) {
	ctx, span := tracer.Start(ctx, "job.aggregate.backfill",
		trace.WithAttributes(attribute.String("job.trigger", trigger)))
	defer span.End()

	run := r.start(JobAggregate, trigger)
	results, err := agg.Backfill(ctx)

	for _, res := range results {
		run.DryRun = run.DryRun || res.DryRun
		run.Scanned += res.Entries
		run.Matched += res.Mentions
		run.Written += res.Written()
	}
	r.finish(span, &run, err)
	metrics.RecordWritten(run.Written)
	return results, err
}

// RunPrune sweeps for unused entries and records the run.
func (r *Recorder) RunPrune(ctx context.Context, trigger string, p *prune.Pruner, now time.Time) (prune.Result, error) {
	ctx, span := tracer.Start(ctx, "job.prune",
		trace.WithAttributes(attribute.String("job.trigger", trigger)))
	defer span.End()

	run := r.start(JobPrune, trigger)
	res, err := p.Run(ctx, now)

	run.DryRun = res.DryRun
	run.Scanned = res.Scanned
	run.Matched = res.Matched
	run.Deleted = res.Deleted
	run.Failed = res.Failed
	r.finish(span, &run, err)
	metrics.RecordDeleted(run.Deleted)
	return res, err
}

func (r *Recorder) start(job, trigger string) journal.Run {
	run := journal.Run{
		Job:       job,
		Trigger:   trigger,
		StartedAt: time.Now().UTC(),
		Status:    journal.StatusOK,
	}
	r.publish(gateway.Event{
		Type:    gateway.EventJobStarted,
		Job:     job,
		Trigger: trigger,
		Time:    run.StartedAt,
	})
	return run
}

func (r *Recorder) finish(span trace.Span, run *journal.Run, err error) {
	run.FinishedAt = time.Now().UTC()
	if err != nil {
		run.Status = journal.StatusFailed
		run.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "job failed")
	}

	if r.Journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		defer cancel()
		if id, jerr := r.Journal.Record(ctx, *run); jerr != nil {
			r.logger().Error("journal: record run", "job", run.Job, "error", jerr)
		} else {
			run.ID = id
		}
	}

	metrics.RecordRun(run.Job, run.Status, run.Duration())
	r.publish(gateway.Event{
		Type:    gateway.EventJobFinished,
		Job:     run.Job,
		Trigger: run.Trigger,
		Time:    run.FinishedAt,
		Run:     run,
	})
}

func (r *Recorder) publish(e gateway.Event) {
	if r.Events != nil {
		r.Events.Publish(e)
	}
}

func (r *Recorder) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
