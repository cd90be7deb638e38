package gateway

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flemzord/scrumroll/internal/cron"
	"github.com/flemzord/scrumroll/internal/journal"
)

// triggerGateway builds a gateway whose router is exercised directly with a
// recorder, token auth configured.
func triggerGateway(runner *fakeRunner) *Gateway {
	return New(
		slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		runner,
		&fakeJournal{},
		nil,
		Config{Listen: "127.0.0.1:0", Token: "secret-token"},
	)
}

func postRun(t *testing.T, g *Gateway, job string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/jobs/"+job+"/run", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rr := httptest.NewRecorder()
	g.buildRouter().ServeHTTP(rr, req)
	return rr
}

func TestTrigger_Accepted(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	g := triggerGateway(runner)

	rr := postRun(t, g, "aggregate")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusAccepted)
	}

	var resp TriggerResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Job != "aggregate" {
		t.Errorf("Job = %q, want %q", resp.Job, "aggregate")
	}
	if resp.Trigger != journal.TriggerGateway {
		t.Errorf("Trigger = %q, want %q", resp.Trigger, journal.TriggerGateway)
	}
	if resp.Status != "accepted" {
		t.Errorf("Status = %q, want %q", resp.Status, "accepted")
	}
	if resp.StartedAt.IsZero() || time.Since(resp.StartedAt) > time.Minute {
		t.Errorf("StartedAt = %v, want recent", resp.StartedAt)
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.triggered) != 1 || runner.triggered[0] != "aggregate:gateway" {
		t.Errorf("triggered = %v, want [aggregate:gateway]", runner.triggered)
	}
}

func TestTrigger_UnknownJob(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{triggerErr: cron.ErrUnknownJob}
	g := triggerGateway(runner)

	rr := postRun(t, g, "no-such-job")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestTrigger_AlreadyRunning(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{triggerErr: cron.ErrJobRunning}
	g := triggerGateway(runner)

	rr := postRun(t, g, "aggregate")
	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestTrigger_NoScheduler(t *testing.T) {
	t.Parallel()

	g := New(
		slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		nil,
		&fakeJournal{},
		nil,
		Config{Listen: "127.0.0.1:0", Token: "secret-token"},
	)

	rr := postRun(t, g, "aggregate")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
