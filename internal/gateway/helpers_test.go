package gateway

import (
	"context"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/scrumroll/internal/journal"
)

// fakeRunner is a minimal JobRunner recording trigger calls.
type fakeRunner struct {
	mu         sync.Mutex
	triggered  []string
	triggerErr error
	next       map[string]time.Time
}

func (f *fakeRunner) Trigger(name, trigger string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.triggerErr != nil {
		return f.triggerErr
	}
	f.triggered = append(f.triggered, name+":"+trigger)
	return nil
}

func (f *fakeRunner) NextRuns() map[string]time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]time.Time, len(f.next))
	for k, v := range f.next {
		out[k] = v
	}
	return out
}

// fakeJournal is a minimal JournalReader backed by a map.
type fakeJournal struct {
	runs map[string]journal.Run
}

func (f *fakeJournal) LastRun(_ context.Context, job string) (journal.Run, error) {
	run, ok := f.runs[job]
	if !ok {
		return journal.Run{}, journal.ErrNoRuns
	}
	return run, nil
}

// freeAddr returns a free TCP address on localhost.
func freeAddr(t *testing.T) string {
	t.Helper()
	var lc net.ListenConfig
	ln, err := lc.Listen(t.Context(), "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		t.Fatal(err)
	}
	return addr
}

// doGet makes a GET request with context.
func doGet(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// doGetWithBearer makes a GET request with a bearer token.
func doGetWithBearer(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// doPostWithBearer makes a POST request with a bearer token.
func doPostWithBearer(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}
