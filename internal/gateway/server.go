package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/scrumroll/internal/metrics"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public, no auth. The listen address defaults to loopback, which is
	// what keeps the scrape endpoint reachable.
	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", metrics.Handler())

	// Operational endpoints require auth and are not mounted when no
	// token is configured.
	if g.config.authConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Token))
			r.Get("/status", g.handleStatus())
			r.Post("/jobs/{job}/run", g.handleTrigger())
			if g.events != nil {
				r.Get("/ws/events", g.events.ServeHTTP)
			}
		})
	}

	return r
}
