// Package metrics provides centralized Prometheus metrics registry for the forecaster.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "race_forecast"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ForecastsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forecasts_total",
		Help:      "Total number of race forecasts by outcome",
	}, []string{"status"})
	EntrantsExtractedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entrants_extracted_total",
		Help:      "Total number of valid entrants read from entry pages",
	})
	HistoriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "histories_total",
		Help:      "Total number of entrant histories by result",
	}, []string{"result"})
	EntryRowsDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entry_rows_dropped_total",
		Help:      "Total number of entry table rows discarded by reason",
	}, []string{"reason"})
	ScheduledRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduled_runs_total",
		Help:      "Total number of scheduled re-forecasts by outcome",
	}, []string{"status"})
)

// Gauge metrics
var (
	WatchedRaces = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "watched_races",
		Help:      "Number of races with a scheduled re-forecast",
	})
	FavouriteWinProbability = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "favourite_win_probability",
		Help:      "Win probability of the top-ranked entrant in the latest forecast",
	}, []string{"race_id"})
)

// Histogram metrics
var (
	ForecastDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "forecast_duration_seconds",
		Help:      "Duration of a full race forecast in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})
	FieldSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "field_size",
		Help:      "Number of entrants per forecast race",
		Buckets:   []float64{2, 4, 6, 8, 10, 12, 14, 16, 18},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(ForecastsTotal)
		registry.MustRegister(EntrantsExtractedTotal)
		registry.MustRegister(HistoriesTotal)
		registry.MustRegister(EntryRowsDroppedTotal)
		registry.MustRegister(ScheduledRunsTotal)

		// Register gauge metrics
		registry.MustRegister(WatchedRaces)
		registry.MustRegister(FavouriteWinProbability)

		// Register histogram metrics
		registry.MustRegister(ForecastDuration)
		registry.MustRegister(FieldSize)

		// Register fetch metrics
		registry.MustRegister(FetchRequestsTotal)
		registry.MustRegister(FetchLatency)
		registry.MustRegister(CacheLookupsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordForecast records a finished forecast and its duration.
func RecordForecast(status string, durationSeconds float64) {
	ForecastsTotal.WithLabelValues(status).Inc()
	ForecastDuration.Observe(durationSeconds)
}

// RecordEntrants records the entrants extracted for one race.
func RecordEntrants(count int) {
	EntrantsExtractedTotal.Add(float64(count))
	FieldSize.Observe(float64(count))
}

// RecordDroppedRow records an entry row discarded during extraction.
func RecordDroppedRow(reason string) {
	EntryRowsDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordHistory records whether an entrant's history page was found.
func RecordHistory(found bool) {
	if found {
		HistoriesTotal.WithLabelValues("found").Inc()
		return
	}
	HistoriesTotal.WithLabelValues("missing").Inc()
}

// RecordScheduledRun records a scheduled re-forecast.
func RecordScheduledRun(status string) {
	ScheduledRunsTotal.WithLabelValues(status).Inc()
}

// UpdateWatchedRaces updates the watched races gauge.
func UpdateWatchedRaces(count int) {
	WatchedRaces.Set(float64(count))
}

// UpdateFavouriteProbability records the favourite's win probability for a race.
func UpdateFavouriteProbability(raceID string, probability float64) {
	FavouriteWinProbability.WithLabelValues(raceID).Set(probability)
}
