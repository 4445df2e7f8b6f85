// Domain-level Prometheus collectors.
//
// HTTP traffic metrics live in the middleware package; this file covers the
// two asynchronous/domain concerns worth watching in production: the
// cache-or-generate split of the explanation flow, and the background
// reference collector's throughput.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ExplainRequests counts explanation requests by outcome:
	// "cache_hit", "generated", or "failed".
	ExplainRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explain_requests_total",
			Help: "Total explanation requests by outcome.",
		},
		[]string{"outcome"},
	)

	// GenerationSeconds records wall time of generation-backend calls,
	// including prompt assembly. Cache hits are not observed here.
	GenerationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "explain_generation_seconds",
			Help:    "Duration of explanation generation in seconds.",
			Buckets: []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
		},
	)

	// CollectorJobs counts background reference-collection jobs by outcome:
	// "collected", "skipped", "failed", or "dropped" (queue full).
	CollectorJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reference_collector_jobs_total",
			Help: "Total reference collection jobs by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(ExplainRequests, GenerationSeconds, CollectorJobs)
}
