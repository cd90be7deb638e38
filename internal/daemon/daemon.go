// Package daemon assembles the long-running scrumroll process: the cron
// scheduler driving both jobs, the run journal, the HTTP gateway, and
// optional trace export.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flemzord/scrumroll/internal/config"
	"github.com/flemzord/scrumroll/internal/cron"
	"github.com/flemzord/scrumroll/internal/gateway"
	"github.com/flemzord/scrumroll/internal/journal"
	"github.com/flemzord/scrumroll/internal/metrics"
	"github.com/flemzord/scrumroll/internal/notion"
	"github.com/flemzord/scrumroll/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

// Options carries build metadata into the daemon's surfaces.
type Options struct {
	Version      string
	ConfigDigest string
}

// Daemon owns the long-running process.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	opts   Options

	client    *notion.Client
	journal   *journal.Store
	events    *gateway.EventHub
	scheduler *cron.Scheduler
	gateway   *gateway.Gateway
	recorder  *Recorder

	stopTracing telemetry.ShutdownFunc
}

// NewClient builds the Notion client from configuration, its transport
// instrumented with request metrics.
func NewClient(cfg *config.Config) *notion.Client {
	return notion.NewClient(cfg.Notion.Token, notion.Options{
		BaseURL: cfg.Notion.BaseURL,
		Version: cfg.Notion.Version,
		HTTPClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: metrics.InstrumentTransport(nil),
		},
	})
}

// New wires a daemon from validated configuration. The journal database is
// opened immediately; everything else starts in Start.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := NewClient(cfg)

	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return nil, err
	}

	events := gateway.NewEventHub(logger)

	d := &Daemon{
		cfg:     cfg,
		logger:  logger,
		opts:    opts,
		client:  client,
		journal: store,
		events:  events,
		recorder: &Recorder{
			Journal: store,
			Events:  events,
			Logger:  logger,
		},
	}

	d.scheduler = cron.NewScheduler(logger)
	jobs := []cron.FuncJob{
		{JobName: JobAggregate, Expr: cfg.Aggregate.Schedule, Func: d.runAggregate},
		{JobName: JobPrune, Expr: cfg.Prune.Schedule, Func: d.runPrune},
	}
	for _, job := range jobs {
		if err := d.scheduler.RegisterJob(job); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("daemon: register job: %w", err)
		}
	}

	d.gateway = gateway.New(logger, d.scheduler, store, events, gateway.Config{
		Listen:       cfg.Gateway.Listen,
		Token:        cfg.Gateway.Token,
		Version:      opts.Version,
		ConfigDigest: opts.ConfigDigest,
	})

	return d, nil
}

// Start brings up trace export, the scheduler, and the gateway in order.
// On failure, already-started pieces are stopped in reverse.
func (d *Daemon) Start(ctx context.Context) error {
	stopTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Endpoint:       d.cfg.Telemetry.OTLPEndpoint,
		Insecure:       d.cfg.Telemetry.Insecure,
		ServiceVersion: d.opts.Version,
	})
	if err != nil {
		return err
	}
	d.stopTracing = stopTracing

	if err := d.scheduler.Start(); err != nil {
		_ = d.stopTracing(ctx)
		return err
	}

	if err := d.gateway.Start(); err != nil {
		_ = d.scheduler.Stop(ctx)
		_ = d.stopTracing(ctx)
		return err
	}

	for job, next := range d.scheduler.NextRuns() {
		d.logger.Info("job scheduled", "job", job, "next_run", next.Format(time.RFC3339))
	}
	d.logger.Info("daemon started", "gateway", d.gateway.Addr())
	return nil
}

// Run starts the daemon and blocks until SIGINT, SIGTERM, or context
// cancellation, then shuts down.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		d.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		d.logger.Info("shutdown requested")
	}

	d.Stop()
	return nil
}

// Stop shuts down in reverse start order: gateway, scheduler, journal,
// trace flush.
func (d *Daemon) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := d.gateway.Stop(ctx); err != nil {
		d.logger.Error("gateway stop", "error", err)
	}
	if err := d.scheduler.Stop(ctx); err != nil {
		d.logger.Error("scheduler stop", "error", err)
	}
	if err := d.journal.Close(); err != nil {
		d.logger.Error("journal close", "error", err)
	}
	if d.stopTracing != nil {
		if err := d.stopTracing(ctx); err != nil {
			d.logger.Error("trace flush", "error", err)
		}
	}
	d.logger.Info("shutdown complete")
}
