package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the export agent.
type Metrics struct {
	registry              *prometheus.Registry
	requestsTotal         prometheus.Counter
	exportsStartedTotal   prometheus.Counter
	exportsCompletedTotal prometheus.Counter
	exportsFailedTotal    prometheus.Counter
	exportsCancelledTotal prometheus.Counter
	activeExports         prometheus.Gauge
	exportDuration        prometheus.Histogram
	errorsTotal           prometheus.Counter
}

// New creates and registers Prometheus metrics for the agent.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutforge_requests_total",
		Help: "Total number of HTTP requests received",
	})
	exportsStartedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutforge_exports_started_total",
		Help: "Total number of export jobs started",
	})
	exportsCompletedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutforge_exports_completed_total",
		Help: "Total number of export jobs completed successfully",
	})
	exportsFailedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutforge_exports_failed_total",
		Help: "Total number of export jobs that failed",
	})
	exportsCancelledTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutforge_exports_cancelled_total",
		Help: "Total number of export jobs cancelled",
	})
	activeExports := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cutforge_active_exports",
		Help: "Number of exports currently rendering",
	})
	exportDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cutforge_export_duration_seconds",
		Help:    "Wall-clock duration of finished export jobs",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~68m
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cutforge_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		exportsStartedTotal,
		exportsCompletedTotal,
		exportsFailedTotal,
		exportsCancelledTotal,
		activeExports,
		exportDuration,
		errorsTotal,
	)

	return &Metrics{
		registry:              registry,
		requestsTotal:         requestsTotal,
		exportsStartedTotal:   exportsStartedTotal,
		exportsCompletedTotal: exportsCompletedTotal,
		exportsFailedTotal:    exportsFailedTotal,
		exportsCancelledTotal: exportsCancelledTotal,
		activeExports:         activeExports,
		exportDuration:        exportDuration,
		errorsTotal:           errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// ExportStarted increments the started counter.
func (m *Metrics) ExportStarted() {
	m.exportsStartedTotal.Inc()
}

// ExportFinished records a terminal job status and its duration.
func (m *Metrics) ExportFinished(status string, seconds float64) {
	switch status {
	case "completed":
		m.exportsCompletedTotal.Inc()
	case "cancelled":
		m.exportsCancelledTotal.Inc()
	default:
		m.exportsFailedTotal.Inc()
	}
	m.exportDuration.Observe(seconds)
}

// SetActiveExports sets the active exports gauge.
func (m *Metrics) SetActiveExports(n int) {
	m.activeExports.Set(float64(n))
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
