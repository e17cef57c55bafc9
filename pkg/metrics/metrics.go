// Package metrics exposes the Prometheus metrics of an unhold run.
// All metrics are defined in their respective packages (client, ratelimit, unhold)
// to maintain modularity and avoid circular dependencies.
//
// A run is a short lived process, so instead of serving /metrics the CLI
// writes the gathered metrics to a file for the node_exporter textfile
// collector once the run ends.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Gatherer is the registry whose metrics are exported.
// All metrics are automatically registered via promauto in their respective packages.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes every gathered metric to path in the text exposition
// format. The file is replaced atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Throttle Metrics (pkg/ratelimit):
//   - shopify_throttle_available (Gauge): Cost points left after the last response
//   - shopify_throttle_waits_total (Counter): Requests delayed for the bucket to refill
//   - shopify_throttle_wait_seconds (Histogram): Time spent waiting for the bucket
//
// Request Metrics (pkg/client):
//   - shopify_requests_total{operation, status} (Counter): Requests by GraphQL operation and status
//   - shopify_request_duration_seconds{operation} (Histogram): Request duration by operation
//   - shopify_errors_total{class} (Counter): Errors by class (client, server, throttled, network, graphql, decode)
//
// Run Metrics (pkg/unhold):
//   - unhold_orders_located_total (Counter): Requested names matched to a held order
//   - unhold_orders_missing_total (Counter): Requested names without a held order
//   - unhold_orders_released_total (Counter): Fulfillment orders released
//   - unhold_orders_unmodified_total (Counter): Submitted orders a finished job left on hold
//   - unhold_job_polls_total (Counter): Job status polls
//   - unhold_job_duration_seconds (Histogram): Time until the release job was done
//   - unhold_runs_total{outcome} (Counter): Runs by outcome (ok, format, not_found, ...)
//
// Example Prometheus Queries:
//
//   # Failed runs in the last day
//   sum by (outcome) (increase(unhold_runs_total{outcome!="ok"}[1d]))
//
//   # Throttle pressure
//   rate(shopify_throttle_waits_total[1h])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(shopify_request_duration_seconds_bucket[5m]))
