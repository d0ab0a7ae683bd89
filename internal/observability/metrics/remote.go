package metrics

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Remote targets
const (
	TargetSpreadsheet    = "spreadsheet"
	TargetDrive          = "drive"
	TargetIdentification = "identification"
	TargetOther          = "other"
)

// RemoteMetrics tracks outbound HTTP calls
type RemoteMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRemoteMetrics creates and registers the outbound request collectors
func NewRemoteMetrics(registry *prometheus.Registry) (*RemoteMetrics, error) {
	m := &RemoteMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biocurate_remote_requests_total",
				Help: "Outbound HTTP requests by target and status code.",
			},
			[]string{"target", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "biocurate_remote_request_duration_seconds",
				Help:    "Duration of outbound HTTP requests.",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"target"},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register remote metrics: %w", err)
	}
	return m, nil
}

// RecordRequest counts one outbound request. A status of 0 means the
// request failed before a response arrived.
func (m *RemoteMetrics) RecordRequest(rawURL string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	target := Target(rawURL)
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(target, label).Inc()
	m.RequestDuration.WithLabelValues(target).Observe(duration.Seconds())
}

// Target maps a URL to a low-cardinality label
func Target(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return TargetOther
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "docs.google.com" || host == "sheets.googleapis.com":
		return TargetSpreadsheet
	case host == "drive.google.com" || strings.HasSuffix(host, ".googleusercontent.com"):
		return TargetDrive
	case strings.Contains(host, "plantnet"):
		return TargetIdentification
	default:
		return TargetOther
	}
}

// Describe implements prometheus.Collector
func (m *RemoteMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RequestsTotal.Describe(ch)
	m.RequestDuration.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *RemoteMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RequestsTotal.Collect(ch)
	m.RequestDuration.Collect(ch)
}
