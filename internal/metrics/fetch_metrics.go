package metrics

import "github.com/prometheus/client_golang/prometheus"

// Fetch layer counter vectors
var (
	FetchRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_requests_total",
		Help:      "Total number of page fetches by page kind and outcome",
	}, []string{"kind", "status"})

	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of document cache lookups by page kind and result",
	}, []string{"kind", "result"})

	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of circuit breaker trips",
	})
)

// Fetch layer histogram vectors
var (
	FetchLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_latency_seconds",
		Help:      "Latency of page fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
)

// RecordFetch records one page fetch.
func RecordFetch(kind, status string, durationSeconds float64) {
	FetchRequestsTotal.WithLabelValues(kind, status).Inc()
	FetchLatency.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordCacheLookup records a document cache hit or miss.
func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}
