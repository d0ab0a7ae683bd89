// Package observability wires the Prometheus collectors of BioCurate into one
// registry and exposes it over HTTP.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/huam/biocurate/internal/httpclient"
	"github.com/huam/biocurate/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application
type Metrics struct {
	registry *prometheus.Registry
	Catalog  *metrics.CatalogMetrics
	Remote   *metrics.RemoteMetrics
	Exsicata *metrics.ExsicataMetrics
}

// NewMetrics creates a registry with every collector registered
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	catalogMetrics, err := metrics.NewCatalogMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog metrics: %w", err)
	}
	remoteMetrics, err := metrics.NewRemoteMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote metrics: %w", err)
	}
	exsicataMetrics, err := metrics.NewExsicataMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create exsicata metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Catalog:  catalogMetrics,
		Remote:   remoteMetrics,
		Exsicata: exsicataMetrics,
	}, nil
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// InstrumentClient records every round trip of c in the remote collectors
func (m *Metrics) InstrumentClient(c *httpclient.Client) {
	if m == nil || c == nil {
		return
	}
	var started sync.Map
	c.SetBeforeRequestHook(func(req *http.Request) {
		started.Store(req, time.Now())
	})
	c.SetAfterResponseHook(func(req *http.Request, resp *http.Response, err error) {
		var elapsed time.Duration
		if v, ok := started.LoadAndDelete(req); ok {
			elapsed = time.Since(v.(time.Time))
		}
		status := 0
		if err == nil && resp != nil {
			status = resp.StatusCode
		}
		m.Remote.RecordRequest(req.URL.String(), status, elapsed)
	})
}
