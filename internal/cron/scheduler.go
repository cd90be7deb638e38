package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sentinel errors for manual triggering.
var (
	// ErrUnknownJob indicates the named job is not registered.
	ErrUnknownJob = errors.New("cron: unknown job")

	// ErrJobRunning indicates the job is already in flight.
	ErrJobRunning = errors.New("cron: job already running")
)

// Scheduler manages periodic job execution using cron expressions.
// Each job is protected by a per-job mutex to prevent parallel execution
// of the same job, whether started by a tick or a manual trigger
// (uses TryLock — atomic, no race).
type Scheduler struct {
	mu        sync.Mutex
	cron      *cron.Cron
	jobs      []Job
	byName    map[string]Job
	locks     map[string]*sync.Mutex
	entries   map[string]cron.EntryID
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	triggered sync.WaitGroup
}

// NewScheduler creates a scheduler. Jobs must be registered before Start().
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		byName:  make(map[string]Job),
		locks:   make(map[string]*sync.Mutex),
		entries: make(map[string]cron.EntryID),
		logger:  logger,
	}
}

// RegisterJob adds a job to the scheduler. Must be called before Start().
// Returns an error if a job with the same name is already registered.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if _, exists := s.byName[name]; exists {
		return fmt.Errorf("cron: duplicate job name %q", name)
	}

	s.byName[name] = j
	s.locks[name] = &sync.Mutex{}
	s.jobs = append(s.jobs, j)
	return nil
}

// Start initializes the cron scheduler and begins executing registered jobs.
// Returns an error if any job has an invalid schedule expression.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.ctx = ctx
	s.cancel = cancel

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser))

	for _, j := range s.jobs {
		job := j
		lock := s.locks[job.Name()]

		id, err := s.cron.AddFunc(job.Schedule(), func() {
			// TryLock is atomic — no race between check and acquire.
			// If the previous run is still in flight, skip this tick.
			if !lock.TryLock() {
				s.logger.Warn("cron: job still running, skipping tick",
					"job", job.Name(),
				)
				return
			}
			defer lock.Unlock()

			s.runJob(ctx, job, TriggerCron)
		})
		if err != nil {
			cancel()
			return fmt.Errorf("cron: invalid schedule for job %q: %w", job.Name(), err)
		}
		s.entries[job.Name()] = id
	}

	s.cron.Start()
	s.logger.Info("cron: scheduler started", "jobs", len(s.jobs))
	return nil
}

// Trigger starts the named job immediately in the background, tagged with
// the given trigger source. Returns ErrJobRunning without waiting when the
// job is already in flight, holding the same lock the ticks use so manual
// and scheduled runs never overlap.
func (s *Scheduler) Trigger(name, trigger string) error {
	s.mu.Lock()
	job, ok := s.byName[name]
	lock := s.locks[name]
	ctx := s.ctx
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !lock.TryLock() {
		return fmt.Errorf("%w: %q", ErrJobRunning, name)
	}

	s.triggered.Add(1)
	go func() {
		defer s.triggered.Done()
		defer lock.Unlock()
		s.runJob(ctx, job, trigger)
	}()
	return nil
}

func (s *Scheduler) runJob(ctx context.Context, job Job, trigger string) {
	s.logger.Debug("cron: job started", "job", job.Name(), "trigger", trigger)
	if err := job.Run(ctx, trigger); err != nil {
		s.logger.Error("cron: job failed",
			"job", job.Name(),
			"trigger", trigger,
			"error", err,
		)
	} else {
		s.logger.Debug("cron: job completed", "job", job.Name(), "trigger", trigger)
	}
}

// NextRuns returns the next scheduled fire time per job name. Empty until
// Start has been called.
func (s *Scheduler) NextRuns() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]time.Time, len(s.entries))
	if s.cron == nil {
		return next
	}
	for name, id := range s.entries {
		next[name] = s.cron.Entry(id).Next
	}
	return next
}

// Stop gracefully shuts down the scheduler, waiting for in-flight jobs,
// triggered runs included.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		// Wait for running jobs to complete.
		<-s.cron.Stop().Done()
		s.logger.Info("cron: scheduler stopped")
	}
	s.triggered.Wait()
	return nil
}
