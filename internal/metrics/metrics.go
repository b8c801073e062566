// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes Prometheus instrumentation for scuttle's
// HTTP surface, queues, worker, broadcaster, catalog and fetcher circuit
// breaker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics, recorded by middleware.PrometheusMetrics for
	// every request through the streamer's chi mux.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// Queue depth, one gauge per queue, set through SetQueueDepth. The
	// queues in internal/queue do not call it.
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current number of items in a queue",
		},
		[]string{"queue"}, // "play_queue", "download_queue"
	)

	// Worker throughput.
	WorkerJobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_processed_total",
			Help: "Total number of download jobs the worker has handled",
		},
		[]string{"result"}, // "committed", "fetch_failed", "commit_failed"
	)

	WorkerJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration from job dequeue to commit or failure",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// Broadcaster session metrics.
	BroadcastSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_sessions",
			Help: "Current number of connected websocket sessions",
		},
	)

	BroadcastEventsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_events_sent_total",
			Help: "Total number of events successfully sent to a session",
		},
	)

	BroadcastSessionsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_sessions_dropped_total",
			Help: "Total number of sessions dropped after a failed send",
		},
	)

	// Catalog query metrics (DuckDB-backed).
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_query_duration_seconds",
			Help:    "Duration of catalog operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CatalogQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_query_errors_total",
			Help: "Total number of catalog operation errors",
		},
		[]string{"operation"},
	)

	// Fetcher circuit breaker (gobreaker).
	FetcherCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetcher_circuit_breaker_state",
			Help: "Fetcher circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	FetcherRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetcher_requests_total",
			Help: "Total number of fetcher subprocess invocations",
		},
		[]string{"result"}, // "success", "failure", "rejected"
	)

	// Process supervisor (C10).
	SupervisorRestarts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_restarts_total",
			Help: "Total number of child process restarts",
		},
		[]string{"process"}, // "server", "tunnel"
	)
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// SetQueueDepth sets the current depth of the named queue.
func SetQueueDepth(queueName string, depth int) {
	QueueDepth.WithLabelValues(queueName).Set(float64(depth))
}

// RecordWorkerJob records the outcome and duration of one worker dispatch.
func RecordWorkerJob(result string, duration time.Duration) {
	WorkerJobsProcessed.WithLabelValues(result).Inc()
	WorkerJobDuration.Observe(duration.Seconds())
}

// SetBroadcastSessions sets the current connected-session count.
func SetBroadcastSessions(n int) {
	BroadcastSessions.Set(float64(n))
}

// RecordBroadcastSend records one event delivered to a session.
func RecordBroadcastSend() {
	BroadcastEventsSent.Inc()
}

// RecordBroadcastDrop records one session dropped after a failed send.
func RecordBroadcastDrop() {
	BroadcastSessionsDropped.Inc()
}

// RecordCatalogQuery records a catalog operation's duration and, if err is
// non-nil, counts it as an error.
func RecordCatalogQuery(operation string, duration time.Duration, err error) {
	CatalogQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		CatalogQueryErrors.WithLabelValues(operation).Inc()
	}
}

// SetFetcherCircuitState mirrors gobreaker.State into a gauge (0/1/2 for
// closed/half-open/open).
func SetFetcherCircuitState(state int) {
	FetcherCircuitState.Set(float64(state))
}

// RecordFetcherRequest records one fetcher invocation's outcome.
func RecordFetcherRequest(result string) {
	FetcherRequests.WithLabelValues(result).Inc()
}

// RecordSupervisorRestart records one child-process restart.
func RecordSupervisorRestart(process string) {
	SupervisorRestarts.WithLabelValues(process).Inc()
}
