package unhold

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for unhold runs.
var (
	ordersLocatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unhold_orders_located_total",
		Help: "Total requested order names matched to a held fulfillment order",
	})

	ordersMissingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unhold_orders_missing_total",
		Help: "Total requested order names without a held fulfillment order",
	})

	ordersReleasedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unhold_orders_released_total",
		Help: "Total fulfillment orders released by finished jobs",
	})

	ordersUnmodifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unhold_orders_unmodified_total",
		Help: "Total submitted fulfillment orders missing from a finished job result",
	})

	jobPollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unhold_job_polls_total",
		Help: "Total job status polls",
	})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "unhold_job_duration_seconds",
		Help:    "Time from job creation until the job was done or polling gave up",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unhold_runs_total",
		Help: "Total unhold runs by outcome",
	}, []string{"outcome"})
)
