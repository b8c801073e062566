// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package metrics provides Prometheus metrics collection and export for
scuttle's observability surface.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput (the streamer's chi mux)
  - Play/download queue depth
  - Worker job throughput and duration
  - Broadcaster session count and send/drop rates
  - Catalog (DuckDB) operation duration and errors
  - Fetcher circuit breaker state and request outcomes
  - Process supervisor restarts

# Metrics Endpoint

Metrics are exposed at /metrics in Prometheus text format:

	curl http://localhost:8321/metrics

# Available Metrics

HTTP:
  - http_requests_total (counter): method, endpoint, status_code
  - http_request_duration_seconds (histogram): method, endpoint
  - http_active_requests (gauge)

Queues:
  - queue_depth (gauge): queue ("play_queue", "download_queue")

Worker:
  - worker_jobs_processed_total (counter): result ("committed",
    "fetch_failed", "commit_failed")
  - worker_job_duration_seconds (histogram)

Broadcaster:
  - broadcast_sessions (gauge)
  - broadcast_events_sent_total (counter)
  - broadcast_sessions_dropped_total (counter)

Catalog:
  - catalog_query_duration_seconds (histogram): operation
  - catalog_query_errors_total (counter): operation

Fetcher:
  - fetcher_circuit_breaker_state (gauge): 0=closed, 1=half-open, 2=open
  - fetcher_requests_total (counter): result ("success", "failure",
    "rejected")

Supervisor:
  - supervisor_restarts_total (counter): process ("server", "tunnel")

# Example PromQL

	# HTTP p95 latency
	histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))

	# Download queue backlog
	queue_depth{queue="download_queue"}

	# Worker failure rate
	rate(worker_jobs_processed_total{result!="committed"}[5m])

# Thread Safety

All recording functions are safe for concurrent use; the Prometheus client
library handles synchronization internally.
*/
package metrics
