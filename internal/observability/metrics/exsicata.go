package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ExsicataMetrics tracks image archive usage and identification calls
type ExsicataMetrics struct {
	ArchiveHits            prometheus.Counter
	ArchiveMisses          prometheus.Counter
	ArchiveStores          prometheus.Counter
	ArchiveErrors          prometheus.Counter
	ImageOutcomes          *prometheus.CounterVec
	Identifications        *prometheus.CounterVec
	IdentificationDuration prometheus.Histogram
}

// NewExsicataMetrics creates and registers the image collectors
func NewExsicataMetrics(registry *prometheus.Registry) (*ExsicataMetrics, error) {
	m := &ExsicataMetrics{
		ArchiveHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "biocurate_archive_hits_total",
			Help: "Images served from the archive.",
		}),
		ArchiveMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "biocurate_archive_misses_total",
			Help: "Images not found in the archive.",
		}),
		ArchiveStores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "biocurate_archive_stores_total",
			Help: "Images written to the archive.",
		}),
		ArchiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "biocurate_archive_errors_total",
			Help: "Archive read or write failures.",
		}),
		ImageOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biocurate_image_outcomes_total",
			Help: "Per-row image search outcomes.",
		}, []string{"outcome"}),
		Identifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "biocurate_identifications_total",
			Help: "Identification requests by status.",
		}, []string{"status"}),
		IdentificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "biocurate_identification_duration_seconds",
			Help:    "Duration of identification requests.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register exsicata metrics: %w", err)
	}
	return m, nil
}

// ArchiveHit counts an image served from the archive
func (m *ExsicataMetrics) ArchiveHit() {
	if m != nil {
		m.ArchiveHits.Inc()
	}
}

// ArchiveMiss counts an archive lookup that found nothing
func (m *ExsicataMetrics) ArchiveMiss() {
	if m != nil {
		m.ArchiveMisses.Inc()
	}
}

// ArchiveStored counts an image written to the archive
func (m *ExsicataMetrics) ArchiveStored() {
	if m != nil {
		m.ArchiveStores.Inc()
	}
}

// ArchiveError counts an archive failure
func (m *ExsicataMetrics) ArchiveError() {
	if m != nil {
		m.ArchiveErrors.Inc()
	}
}

// RecordOutcome counts one image row outcome
func (m *ExsicataMetrics) RecordOutcome(outcome string) {
	if m != nil {
		m.ImageOutcomes.WithLabelValues(outcome).Inc()
	}
}

// RecordIdentification counts one identification request
func (m *ExsicataMetrics) RecordIdentification(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Identifications.WithLabelValues(status).Inc()
	m.IdentificationDuration.Observe(duration.Seconds())
}

// Describe implements prometheus.Collector
func (m *ExsicataMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.ArchiveHits.Desc()
	ch <- m.ArchiveMisses.Desc()
	ch <- m.ArchiveStores.Desc()
	ch <- m.ArchiveErrors.Desc()
	m.ImageOutcomes.Describe(ch)
	m.Identifications.Describe(ch)
	ch <- m.IdentificationDuration.Desc()
}

// Collect implements prometheus.Collector
func (m *ExsicataMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.ArchiveHits
	ch <- m.ArchiveMisses
	ch <- m.ArchiveStores
	ch <- m.ArchiveErrors
	m.ImageOutcomes.Collect(ch)
	m.Identifications.Collect(ch)
	ch <- m.IdentificationDuration
}
