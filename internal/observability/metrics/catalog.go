// Package metrics provides the Prometheus collectors of the BioCurate components.
// Every recording method is safe on a nil receiver so components can run
// without metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Query outcomes
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// CatalogMetrics tracks dataset loads and catalog queries
type CatalogMetrics struct {
	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	LoadsTotal    *prometheus.CounterVec
	DatasetRows   *prometheus.GaugeVec
}

// NewCatalogMetrics creates and registers the catalog collectors
func NewCatalogMetrics(registry *prometheus.Registry) (*CatalogMetrics, error) {
	m := &CatalogMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register catalog metrics: %w", err)
	}
	return m, nil
}

func (m *CatalogMetrics) initMetrics() {
	m.QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biocurate_queries_total",
			Help: "Total number of catalog queries by action and outcome.",
		},
		[]string{"action", "outcome"},
	)
	m.QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "biocurate_query_duration_seconds",
			Help:    "Time spent answering catalog queries.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"action"},
	)
	m.LoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biocurate_dataset_loads_total",
			Help: "Dataset loads by dataset, origin and status.",
		},
		[]string{"dataset", "origin", "status"},
	)
	m.DatasetRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "biocurate_dataset_rows",
			Help: "Rows in the currently loaded dataset.",
		},
		[]string{"dataset"},
	)
}

// RecordQuery counts one query and its duration
func (m *CatalogMetrics) RecordQuery(action, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(action, outcome).Inc()
	m.QueryDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordLoad counts one dataset load; rows is only applied on success
func (m *CatalogMetrics) RecordLoad(dataset, origin string, rows int, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.LoadsTotal.WithLabelValues(dataset, origin, status).Inc()
	if err == nil {
		m.DatasetRows.WithLabelValues(dataset).Set(float64(rows))
	}
}

// Describe implements prometheus.Collector
func (m *CatalogMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.QueriesTotal.Describe(ch)
	m.QueryDuration.Describe(ch)
	m.LoadsTotal.Describe(ch)
	m.DatasetRows.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *CatalogMetrics) Collect(ch chan<- prometheus.Metric) {
	m.QueriesTotal.Collect(ch)
	m.QueryDuration.Collect(ch)
	m.LoadsTotal.Collect(ch)
	m.DatasetRows.Collect(ch)
}
