package cron

import (
	"context"
	"errors"
	"testing"
)

func TestFuncJob(t *testing.T) {
	t.Parallel()

	var gotTrigger string
	wantErr := errors.New("boom")

	j := FuncJob{
		JobName: "aggregate",
		Expr:    "55 23 * * *",
		Func: func(_ context.Context, trigger string) error {
			gotTrigger = trigger
			return wantErr
		},
	}

	if j.Name() != "aggregate" {
		t.Errorf("name = %q, want %q", j.Name(), "aggregate")
	}
	if j.Schedule() != "55 23 * * *" {
		t.Errorf("schedule = %q, want %q", j.Schedule(), "55 23 * * *")
	}
	if err := j.Run(context.Background(), TriggerCron); !errors.Is(err, wantErr) {
		t.Errorf("run error = %v, want %v", err, wantErr)
	}
	if gotTrigger != TriggerCron {
		t.Errorf("trigger = %q, want %q", gotTrigger, TriggerCron)
	}
}
