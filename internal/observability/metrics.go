package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "noonmap"

// Metrics holds the Prometheus counters, histograms, and gauges for the raster pipeline.
type Metrics struct {
	CellsComputed   *prometheus.CounterVec   // labels: stage
	StageDuration   *prometheus.HistogramVec // labels: stage
	ArtifactCache   *prometheus.CounterVec   // labels: artifact, result={hit,miss}
	PolarCells      *prometheus.CounterVec   // labels: stage, kind={always_up,never_up}
	Unclassified    prometheus.Counter
	SolverErrors    *prometheus.CounterVec // labels: stage
	PipelineRunning prometheus.Gauge

	// Artifact notification metrics.
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CellsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_computed_total",
			Help:      "Raster cells evaluated, by stage.",
		}, []string{"stage"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of a stage computation, excluding cache hits.",
			Buckets:   []float64{0.01, 0.1, 1, 5, 15, 60, 300, 900, 3600},
		}, []string{"stage"}),
		ArtifactCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_cache_total",
			Help:      "Artifact memoization lookups by artifact and result.",
		}, []string{"artifact", "result"}),
		PolarCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polar_cells_total",
			Help:      "Cells where the Sun never crosses the horizon.",
		}, []string{"stage", "kind"}),
		Unclassified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unclassified_cells_total",
			Help:      "Time-zone cells not covered by any zone.",
		}),
		SolverErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solver_errors_total",
			Help:      "Ephemeris failures that aborted a stage.",
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while stages are running, 0 otherwise.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_notifications_total",
			Help:      "Artifact events published to Kafka.",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_notification_errors_total",
			Help:      "Artifact events that failed to publish.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CellsComputed,
		m.StageDuration,
		m.ArtifactCache,
		m.PolarCells,
		m.Unclassified,
		m.SolverErrors,
		m.PipelineRunning,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	}
}
