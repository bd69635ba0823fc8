// Package metrics holds the Prometheus collectors for the classroom API.
//
// Every recording method is safe on a nil *Metrics, so components take a
// *Metrics and callers that disable metrics simply pass nil.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels shared by the auth counters.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics contains the custom collectors.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	Logins        *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	TokenChecks   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Panics if registration fails (following prometheus convention).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classroom_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "classroom_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classroom_logins_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classroom_registrations_total",
				Help: "Total number of registration attempts by result",
			},
			[]string{"result"},
		),
		TokenChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classroom_token_checks_total",
				Help: "Bearer token checks by result (ok, missing, malformed, invalid_signature, expired)",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.Logins, m.Registrations, m.TokenChecks)
	return m
}

// NewRegistry returns a registry with the Go and process collectors
// registered, to avoid polluting the global one.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveLogin records a login attempt. result is one of the Result* constants.
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

// ObserveRegistration records a registration attempt.
func (m *Metrics) ObserveRegistration(result string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(result).Inc()
}

// ObserveTokenCheck records the outcome of one bearer token check.
func (m *Metrics) ObserveTokenCheck(result string) {
	if m == nil {
		return
	}
	m.TokenChecks.WithLabelValues(result).Inc()
}
