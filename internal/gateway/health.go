package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version,omitempty"`
	ConfigDigest  string `json:"config_digest,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Always 200 once the gateway is serving; the jobs have no liveness of
// their own to degrade it.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status:        "ok",
			Version:       g.config.Version,
			ConfigDigest:  g.config.ConfigDigest,
			UptimeSeconds: int64(time.Since(g.startedAt) / time.Second),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
