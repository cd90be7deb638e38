package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/flemzord/scrumroll/internal/journal"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	UptimeSeconds int64                `json:"uptime_seconds"`
	Jobs          map[string]JobStatus `json:"jobs"`
}

// JobStatus reports one job's last recorded run and next scheduled one.
type JobStatus struct {
	LastRun *journal.Run `json:"last_run,omitempty"`
	NextRun *time.Time   `json:"next_run,omitempty"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			UptimeSeconds: int64(time.Since(g.startedAt) / time.Second),
			Jobs:          make(map[string]JobStatus),
		}

		if g.jobs != nil {
			for name, next := range g.jobs.NextRuns() {
				at := next
				status := JobStatus{NextRun: &at}
				if g.runs != nil {
					if run, err := g.runs.LastRun(r.Context(), name); err == nil {
						status.LastRun = &run
					} else if !errors.Is(err, journal.ErrNoRuns) {
						g.logger.Error("status: read last run", "job", name, "error", err)
					}
				}
				resp.Jobs[name] = status
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
