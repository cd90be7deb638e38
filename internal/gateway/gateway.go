// Package gateway exposes the daemon's HTTP surface: health, status,
// Prometheus metrics, manual job triggering, and a WebSocket stream of job
// lifecycle events.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flemzord/scrumroll/internal/journal"
)

// JobRunner starts jobs on demand and reports their schedules. Implemented
// by the cron scheduler.
type JobRunner interface {
	// Trigger starts the named job in the background, tagged with the
	// trigger source. Returns cron.ErrJobRunning when it is in flight.
	Trigger(name, trigger string) error

	// NextRuns returns the next scheduled fire time per job.
	NextRuns() map[string]time.Time
}

// JournalReader reads recorded job runs. Implemented by the journal store.
type JournalReader interface {
	LastRun(ctx context.Context, job string) (journal.Run, error)
}

// Gateway is the daemon's HTTP endpoint.
type Gateway struct {
	config    Config
	logger    *slog.Logger
	jobs      JobRunner
	runs      JournalReader
	events    *EventHub
	server    *http.Server
	listener  net.Listener
	startedAt time.Time
}

// New creates a Gateway. jobs, runs, and events may be nil; the matching
// routes then serve empty data.
func New(logger *slog.Logger, jobs JobRunner, runs JournalReader, events *EventHub, cfg Config) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.defaults()
	return &Gateway{
		config: cfg,
		logger: logger,
		jobs:   jobs,
		runs:   runs,
		events: events,
	}
}

// Addr returns the bound listen address, valid after Start.
func (g *Gateway) Addr() string {
	if g.listener == nil {
		return g.config.Listen
	}
	return g.listener.Addr().String()
}

// Start binds the listen address and serves in the background.
func (g *Gateway) Start() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Listen); err != nil {
		return errors.New("gateway: invalid listen address: " + g.config.Listen)
	}

	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Listen,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Listen)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}
	g.listener = ln

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String(), "auth", g.config.authConfigured())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server, closing event subscribers first.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	if g.events != nil {
		g.events.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
