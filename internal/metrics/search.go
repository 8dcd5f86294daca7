package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "funderdex"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of funder searches by outcome",
		},
		[]string{"mode", "match", "outcome"},
	)

	SearchBackendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_backend_duration_seconds",
			Help:      "Document-search backend call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"collection"},
	)

	SearchResultsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_results_dropped_total",
			Help:      "Results removed by the content post-filter",
		},
		[]string{"reason"},
	)
)

// Registry (nonprofit enrichment) Prometheus metrics.
var (
	RegistryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_requests_total",
			Help:      "Total number of nonprofit registry requests",
		},
		[]string{"operation", "status"},
	)

	RegistryRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_request_duration_seconds",
			Help:      "Nonprofit registry request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and registry metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchBackendDuration)
	prometheus.MustRegister(SearchResultsDroppedTotal)
	prometheus.MustRegister(RegistryRequestsTotal)
	prometheus.MustRegister(RegistryRequestDuration)
	searchMetricsRegistered = true
}
