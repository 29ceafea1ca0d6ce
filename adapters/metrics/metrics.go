// Package metrics provides Prometheus metrics collection for the host.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for the host.
type Collector struct {
	// Catalog metrics
	CatalogBuildDuration prometheus.Histogram
	CatalogEntries       prometheus.Gauge
	CatalogSkipped       *prometheus.CounterVec

	// Setup metrics
	SetupAttempts prometheus.Counter
	SetupOutcomes *prometheus.CounterVec
	SetupDuration prometheus.Histogram
	StepDuration  *prometheus.HistogramVec

	// Tenant metrics
	TenantsRunning prometheus.Gauge
}

// New creates a new metrics collector with all metrics registered.
func New() *Collector {
	return &Collector{
		CatalogBuildDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "shellhost",
				Name:      "catalog_build_duration_seconds",
				Help:      "Duration of the extension catalog build",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		CatalogEntries: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "shellhost",
				Name:      "catalog_entries",
				Help:      "Number of extensions in the catalog",
			},
		),
		CatalogSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shellhost",
				Name:      "catalog_skipped_total",
				Help:      "Candidates skipped during catalog build",
			},
			[]string{"reason"},
		),
		SetupAttempts: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "shellhost",
				Name:      "setup_attempts_total",
				Help:      "Total number of tenant setup attempts",
			},
		),
		SetupOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shellhost",
				Name:      "setup_outcomes_total",
				Help:      "Tenant setup outcomes",
			},
			[]string{"outcome"},
		),
		SetupDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "shellhost",
				Name:      "setup_duration_seconds",
				Help:      "Duration of tenant setup attempts",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		StepDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "shellhost",
				Name:      "recipe_step_duration_seconds",
				Help:      "Duration of individual recipe steps",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"step"},
		),
		TenantsRunning: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "shellhost",
				Name:      "tenants_running",
				Help:      "Number of tenants currently in the running state",
			},
		),
	}
}
