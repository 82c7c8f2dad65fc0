package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Cache metrics
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	CacheStoreErrors *prometheus.CounterVec

	// Generation metrics
	GenerationLatency *prometheus.HistogramVec
	ProviderFailures  *prometheus.CounterVec
	ProviderWins      *prometheus.CounterVec
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		// Cache hits/misses by kind ("answer" or "speech")
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolgenius_cache_hits_total",
			Help: "Total number of cache hits by generation kind",
		}, []string{"kind"}),

		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolgenius_cache_misses_total",
			Help: "Total number of cache misses by generation kind",
		}, []string{"kind"}),

		// Storage failures absorbed by the fail-open policy
		CacheStoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolgenius_cache_store_errors_total",
			Help: "Total number of absorbed cache-store failures by operation",
		}, []string{"operation"}),

		// Generation latency (cache misses only; hits are a point read)
		GenerationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "schoolgenius_generation_duration_seconds",
			Help:    "Generation latency on cache misses in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}, // TTS and LLM calls can be slow
		}, []string{"kind"}),

		ProviderFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolgenius_provider_failures_total",
			Help: "Total number of generation provider failures by provider",
		}, []string{"provider"}),

		ProviderWins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolgenius_provider_wins_total",
			Help: "Total number of successful generations by winning provider",
		}, []string{"provider"}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance (nil before InitMetrics)
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(kind string) {
	m.CacheHits.WithLabelValues(kind).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(kind string) {
	m.CacheMisses.WithLabelValues(kind).Inc()
}

// RecordStoreError records an absorbed cache-store failure
func (m *Metrics) RecordStoreError(operation string) {
	m.CacheStoreErrors.WithLabelValues(operation).Inc()
}

// RecordGenerationLatency records miss-path generation latency
func (m *Metrics) RecordGenerationLatency(kind string, seconds float64) {
	m.GenerationLatency.WithLabelValues(kind).Observe(seconds)
}

// RecordProviderFailure records a single provider failure
func (m *Metrics) RecordProviderFailure(provider string) {
	m.ProviderFailures.WithLabelValues(provider).Inc()
}

// RecordProviderWin records the provider that satisfied a miss
func (m *Metrics) RecordProviderWin(provider string) {
	m.ProviderWins.WithLabelValues(provider).Inc()
}
