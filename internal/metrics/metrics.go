// Package metrics provides Prometheus metrics for scrumroll.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// JobRunsTotal counts finished job runs by outcome.
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scrumroll",
			Name:      "job_runs_total",
			Help:      "Total number of finished job runs",
		},
		[]string{"job", "status"},
	)

	// JobDuration measures job run duration.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scrumroll",
			Name:      "job_duration_seconds",
			Help:      "Duration of job runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	// RecordsWrittenTotal counts aggregate records created or updated.
	RecordsWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scrumroll",
			Name:      "records_written_total",
			Help:      "Total number of daily aggregate records created or updated",
		},
	)

	// EntriesDeletedTotal counts entries deleted by the pruner.
	EntriesDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scrumroll",
			Name:      "entries_deleted_total",
			Help:      "Total number of entries deleted",
		},
	)

	// NotionRequestsTotal counts Notion API requests by method and status.
	NotionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scrumroll",
			Name:      "notion_requests_total",
			Help:      "Total number of Notion API requests",
		},
		[]string{"method", "code"},
	)
)

// RecordRun records a finished job run.
func RecordRun(job, status string, duration time.Duration) {
	JobRunsTotal.WithLabelValues(job, status).Inc()
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordWritten records created or updated aggregate records.
func RecordWritten(n int) {
	RecordsWrittenTotal.Add(float64(n))
}

// RecordDeleted records deleted entries.
func RecordDeleted(n int) {
	EntriesDeletedTotal.Add(float64(n))
}

// InstrumentTransport wraps rt so every request through it increments
// NotionRequestsTotal. A nil rt wraps http.DefaultTransport.
func InstrumentTransport(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(NotionRequestsTotal, rt)
}

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
