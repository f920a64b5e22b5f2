// Package metrics defines the Prometheus collectors for searches and
// aggregations and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	SearchesTotal       *prometheus.CounterVec
	RecordsScanned      prometheus.Counter
	RecordsMatched      prometheus.Counter
	RecordsMalformed    prometheus.Counter
	FragmentFetches     *prometheus.CounterVec
	AggregationDuration *prometheus.HistogramVec
	IntensityCacheHits  prometheus.Counter
	IntensityCacheMiss  prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraganalyzer_searches_total",
				Help: "Total searches by mode and outcome (hits, no_hits, cancelled, error).",
			},
			[]string{"mode", "outcome"},
		),
		RecordsScanned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fraganalyzer_records_scanned_total",
				Help: "Identification records read by the search engine.",
			},
		),
		RecordsMatched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fraganalyzer_records_matched_total",
				Help: "Identification records that passed every active filter.",
			},
		),
		RecordsMalformed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fraganalyzer_records_malformed_total",
				Help: "Identification records skipped because they could not be parsed.",
			},
		),
		FragmentFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraganalyzer_fragment_fetches_total",
				Help: "Fragment ion fetches by status.",
			},
			[]string{"status"},
		),
		AggregationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fraganalyzer_aggregation_duration_seconds",
				Help:    "Aggregation latency in seconds by analysis.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"analysis"},
		),
		IntensityCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fraganalyzer_intensity_cache_hits_total",
				Help: "Total-intensity lookups served from cache.",
			},
		),
		IntensityCacheMiss: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fraganalyzer_intensity_cache_misses_total",
				Help: "Total-intensity lookups that had to read the spectrum.",
			},
		),
	}

	m.registry.MustRegister(
		m.SearchesTotal,
		m.RecordsScanned,
		m.RecordsMatched,
		m.RecordsMalformed,
		m.FragmentFetches,
		m.AggregationDuration,
		m.IntensityCacheHits,
		m.IntensityCacheMiss,
	)

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch records the outcome of one search.
func (m *Metrics) ObserveSearch(mode, outcome string, scanned, matched, malformed int) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(mode, outcome).Inc()
	m.RecordsScanned.Add(float64(scanned))
	m.RecordsMatched.Add(float64(matched))
	m.RecordsMalformed.Add(float64(malformed))
}

// ObserveFetch records one fragment ion fetch.
func (m *Metrics) ObserveFetch(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.FragmentFetches.WithLabelValues(status).Inc()
}

// ObserveAggregation records how long an analysis took.
func (m *Metrics) ObserveAggregation(analysis string, start time.Time) {
	if m == nil {
		return
	}
	m.AggregationDuration.WithLabelValues(analysis).Observe(time.Since(start).Seconds())
}

// ObserveCache records a total-intensity cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.IntensityCacheHits.Inc()
	} else {
		m.IntensityCacheMiss.Inc()
	}
}
