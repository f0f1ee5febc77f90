// Package observability provides Prometheus metrics for the chat pipeline.
//
// All methods are safe on a nil *Metrics so components can run without
// instrumentation in tests and in the CLI.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "legal_assistant"

// Metrics holds the counters exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts pipeline runs. Labels: mode (sync, stream),
	// status (success, restricted, rejected, error).
	RequestsTotal *prometheus.CounterVec

	// UpstreamTotal counts calls to external services. Labels: component
	// (classifier, retriever, generator), source (live, fallback).
	UpstreamTotal *prometheus.CounterVec

	// HistoryAppendsTotal counts exchanges committed to a session. Labels:
	// path (sync, save_session).
	HistoryAppendsTotal *prometheus.CounterVec

	// StreamEventsTotal counts events written to streaming clients. Labels: type.
	StreamEventsTotal *prometheus.CounterVec
}

// New registers all metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Chat pipeline runs by mode and final status.",
		}, []string{"mode", "status"}),
		UpstreamTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upstream_calls_total",
			Help:      "Upstream calls by component and whether live data or a fallback was used.",
		}, []string{"component", "source"}),
		HistoryAppendsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "history_appends_total",
			Help:      "Exchanges appended to session history.",
		}, []string{"path"}),
		StreamEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stream_events_total",
			Help:      "Events written to streaming clients by type.",
		}, []string{"type"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Request records a finished pipeline run.
func (m *Metrics) Request(mode, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(mode, status).Inc()
}

// Upstream records the source of a component's result.
func (m *Metrics) Upstream(component, source string) {
	if m == nil {
		return
	}
	m.UpstreamTotal.WithLabelValues(component, source).Inc()
}

// HistoryAppend records a committed exchange.
func (m *Metrics) HistoryAppend(path string) {
	if m == nil {
		return
	}
	m.HistoryAppendsTotal.WithLabelValues(path).Inc()
}

// StreamEvent records one written stream event.
func (m *Metrics) StreamEvent(eventType string) {
	if m == nil {
		return
	}
	m.StreamEventsTotal.WithLabelValues(eventType).Inc()
}
