package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/scrumroll/internal/cron"
	"github.com/flemzord/scrumroll/internal/journal"
)

// TriggerResponse is the 202 body of POST /jobs/{job}/run. It mirrors the
// journal entry the accepted run will produce.
type TriggerResponse struct {
	Job       string    `json:"job"`
	Trigger   string    `json:"trigger"`
	StartedAt time.Time `json:"started_at"`
	Status    string    `json:"status"`
}

// handleTrigger starts a job on demand. The run proceeds in the background;
// its outcome lands in the journal and the event stream.
func (g *Gateway) handleTrigger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job := chi.URLParam(r, "job")
		if job == "" {
			http.Error(w, "missing job name", http.StatusBadRequest)
			return
		}

		if g.jobs == nil {
			http.Error(w, "no scheduler", http.StatusServiceUnavailable)
			return
		}

		err := g.jobs.Trigger(job, journal.TriggerGateway)
		switch {
		case errors.Is(err, cron.ErrUnknownJob):
			http.Error(w, "unknown job", http.StatusNotFound)
			return
		case errors.Is(err, cron.ErrJobRunning):
			http.Error(w, "job already running", http.StatusConflict)
			return
		case err != nil:
			g.logger.Error("trigger failed", "job", job, "error", err)
			http.Error(w, "trigger failed", http.StatusInternalServerError)
			return
		}

		g.logger.Info("job triggered", "job", job)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(TriggerResponse{
			Job:       job,
			Trigger:   journal.TriggerGateway,
			StartedAt: time.Now().UTC(),
			Status:    "accepted",
		})
	}
}
