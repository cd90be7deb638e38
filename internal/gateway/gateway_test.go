package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/scrumroll/internal/cron"
	"github.com/flemzord/scrumroll/internal/cron/crontest"
)

func newTestGateway(t *testing.T, addr, token string) (*Gateway, *fakeRunner) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	runner := &fakeRunner{}
	g := New(logger, runner, &fakeJournal{}, nil, Config{
		Listen:          addr,
		Token:           token,
		ConfigDigest:    "4f2a9c",
		Version:         "test",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 2 * time.Second,
	})
	return g, runner
}

func TestGateway_StartStop(t *testing.T) {
	t.Parallel()

	addr := freeAddr(t)
	g, _ := newTestGateway(t, addr, "")

	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp := doGet(t, "http://"+addr+"/health")
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("health.Status = %q, want %q", health.Status, "ok")
	}
	if health.ConfigDigest != "4f2a9c" {
		t.Errorf("health.ConfigDigest = %q, want %q", health.ConfigDigest, "4f2a9c")
	}

	if err := g.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestGateway_InvalidListenAddress(t *testing.T) {
	t.Parallel()

	g, _ := newTestGateway(t, "not a valid address::", "")
	if err := g.Start(); err == nil {
		t.Error("expected error for invalid listen address")
		_ = g.Stop(context.Background())
	}
}

func TestGateway_ProtectedNotMountedWithoutToken(t *testing.T) {
	t.Parallel()

	addr := freeAddr(t)
	g, _ := newTestGateway(t, addr, "")

	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = g.Stop(context.Background()) }()

	resp := doGet(t, "http://"+addr+"/status")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /status = %d, want 404 or 405", resp.StatusCode)
	}

	resp = doPostWithBearer(t, "http://"+addr+"/jobs/aggregate/run", "any-token")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /jobs/aggregate/run = %d, want 404 or 405", resp.StatusCode)
	}
}

func TestGateway_StatusWithAuth(t *testing.T) {
	t.Parallel()

	addr := freeAddr(t)
	g, runner := newTestGateway(t, addr, "secret-token")
	runner.next = map[string]time.Time{"aggregate": time.Now().Add(time.Hour)}

	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = g.Stop(context.Background()) }()

	resp := doGet(t, "http://"+addr+"/status")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	resp = doGetWithBearer(t, "http://"+addr+"/status", "secret-token")
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if _, ok := status.Jobs["aggregate"]; !ok {
		t.Errorf("Jobs = %v, want an aggregate entry", status.Jobs)
	}
}

func TestGateway_TriggerJob(t *testing.T) {
	t.Parallel()

	addr := freeAddr(t)
	g, runner := newTestGateway(t, addr, "secret-token")

	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = g.Stop(context.Background()) }()

	resp := doPostWithBearer(t, "http://"+addr+"/jobs/aggregate/run", "secret-token")
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("trigger status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	var tr TriggerResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatalf("decode trigger response: %v", err)
	}
	if tr.Job != "aggregate" {
		t.Errorf("Job = %q, want %q", tr.Job, "aggregate")
	}
	if tr.Status != "accepted" {
		t.Errorf("Status = %q, want %q", tr.Status, "accepted")
	}

	runner.mu.Lock()
	triggered := append([]string(nil), runner.triggered...)
	runner.mu.Unlock()
	if len(triggered) != 1 || triggered[0] != "aggregate:gateway" {
		t.Errorf("triggered = %v, want [aggregate:gateway]", triggered)
	}
}

// TestGateway_TriggerConflict runs the gateway against a real scheduler with
// a job held in flight, verifying the second trigger maps to 409.
func TestGateway_TriggerConflict(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	sched := cron.NewScheduler(logger)

	started := make(chan struct{})
	release := make(chan struct{})
	job := &crontest.MockJob{
		NameVal:     "aggregate",
		ScheduleVal: "55 23 * * *",
		RunFunc: func(_ context.Context, _ string) error {
			close(started)
			<-release
			return nil
		},
	}
	if err := sched.RegisterJob(job); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}

	addr := freeAddr(t)
	g := New(logger, sched, &fakeJournal{}, nil, Config{
		Listen:          addr,
		Token:           "secret-token",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 2 * time.Second,
	})

	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = g.Stop(context.Background()) }()
	defer func() { _ = sched.Stop(context.Background()) }()
	defer close(release)

	url := "http://" + addr + "/jobs/aggregate/run"

	resp := doPostWithBearer(t, url, "secret-token")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("first trigger = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	<-started

	resp = doPostWithBearer(t, url, "secret-token")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second trigger = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	if job.CallCount() != 1 {
		t.Errorf("CallCount = %d, want 1", job.CallCount())
	}
}

func TestGateway_MetricsExposed(t *testing.T) {
	t.Parallel()

	addr := freeAddr(t)
	g, _ := newTestGateway(t, addr, "")

	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = g.Stop(context.Background()) }()

	resp := doGet(t, "http://"+addr+"/metrics")
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	if !strings.Contains(string(body), "scrumroll_records_written_total") {
		t.Error("metrics output missing scrumroll_records_written_total")
	}
}

func TestGateway_StopNilServer(t *testing.T) {
	t.Parallel()

	g, _ := newTestGateway(t, "127.0.0.1:0", "")
	if err := g.Stop(context.Background()); err != nil {
		t.Errorf("Stop without Start: %v", err)
	}
}
