// Package metrics defines the Prometheus collectors for the HTTP surface and
// the upstream fetcher, and the scrape handler that exposes them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. All methods are safe on a nil *Metrics so
// components can run without instrumentation.
type Metrics struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	UpstreamFetchesTotal  *prometheus.CounterVec
	UpstreamFetchDuration *prometheus.HistogramVec
	CompanyResponsesTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. A nil reg gets a
// fresh registry, which keeps tests independent of the global default.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		UpstreamFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_fetches_total",
				Help: "Upstream document fetches by outcome (ok, timeout, transport, upstream_status, redirect_loop, body_too_large).",
			},
			[]string{"outcome"},
		),
		UpstreamFetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_fetch_duration_seconds",
				Help:    "Upstream document fetch latency in seconds, redirects included.",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		CompanyResponsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "company_responses_total",
				Help: "Company lookups by response status code.",
			},
			[]string{"status"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.UpstreamFetchesTotal,
		m.UpstreamFetchDuration,
		m.CompanyResponsesTotal,
	)
	return m
}

// ObserveFetch records one upstream fetch.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamFetchesTotal.WithLabelValues(outcome).Inc()
	m.UpstreamFetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveResponse records the status of one company lookup.
func (m *Metrics) ObserveResponse(status int) {
	if m == nil {
		return
	}
	m.CompanyResponsesTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Handler returns the scrape handler for the registry the metrics live on.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
