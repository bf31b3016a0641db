// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Recovery flow outcomes, labelled by step and outcome.
	RecoveryTotal *prometheus.CounterVec

	// Stale reset PINs cleared by the sweeper.
	PinsSweptTotal prometheus.Counter

	registry *prometheus.Registry
}

// New creates the collectors and registers them on registry.
// A nil registry gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diary_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "diary_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RecoveryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diary_recovery_steps_total",
				Help: "Password recovery steps by outcome",
			},
			[]string{"step", "outcome"},
		),
		PinsSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "diary_reset_pins_swept_total",
				Help: "Stale reset PINs cleared by the sweeper",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RecoveryTotal,
		m.PinsSweptTotal,
	)

	return m
}

// Recovery records the outcome of one recovery step. Safe on a nil receiver.
func (m *Metrics) Recovery(step, outcome string) {
	if m == nil {
		return
	}
	m.RecoveryTotal.WithLabelValues(step, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
