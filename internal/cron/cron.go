// Package cron provides the daemon's job scheduler: periodic aggregate and
// prune runs plus manual triggering with overlap protection.
package cron

import "context"

// TriggerCron marks runs started by a scheduled tick. Manual triggers pass
// their own source name through Trigger.
const TriggerCron = "cron"

// Job defines a scheduled background task.
type Job interface {
	// Name returns a unique identifier for this job (used for logging,
	// dedup, and manual triggering).
	Name() string

	// Schedule returns a 5-field cron expression (e.g., "55 23 * * *").
	Schedule() string

	// Run executes the job. The trigger names what started the run
	// (TriggerCron for a scheduled tick). Implementations should check
	// ctx.Done() for graceful cancellation.
	Run(ctx context.Context, trigger string) error
}
