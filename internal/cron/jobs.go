package cron

import "context"

// FuncJob adapts a plain function into a Job. The daemon uses it to hang
// the aggregate and prune runners on the scheduler without each defining a
// job type.
type FuncJob struct {
	// JobName is the unique job identifier.
	JobName string

	// Expr is the 5-field cron expression.
	Expr string

	// Func executes the job.
	Func func(ctx context.Context, trigger string) error
}

// Compile-time interface check.
var _ Job = FuncJob{}

// Name implements Job.
func (j FuncJob) Name() string { return j.JobName }

// Schedule implements Job.
func (j FuncJob) Schedule() string { return j.Expr }

// Run implements Job.
func (j FuncJob) Run(ctx context.Context, trigger string) error {
	return j.Func(ctx, trigger)
}
