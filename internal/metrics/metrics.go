// Package metrics holds the Prometheus collectors of the backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

// Guard decision labels
const (
	DecisionAllow         = "allow"
	DecisionRedirectLogin = "redirect_login"
	DecisionRedirectHome  = "redirect_home"
	DecisionUnauthorized  = "unauthorized"
	DecisionForbidden     = "forbidden"
	DecisionError         = "error"
	DecisionRejected      = "rejected"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	loginAttempts  *prometheus.CounterVec
	guardDecisions *prometheus.CounterVec
	resetRequests  *prometheus.CounterVec
	aiRequests     *prometheus.CounterVec
	aiDuration     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on a fresh registry
// together with the Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "braille_login_attempts_total",
			Help: "Login attempts by kind (user, admin) and outcome",
		}, []string{"kind", "outcome"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "braille_route_guard_decisions_total",
			Help: "Route guard decisions by resource class and decision",
		}, []string{"class", "decision"}),
		resetRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "braille_password_reset_requests_total",
			Help: "Password reset requests by stage (issue, consume) and outcome",
		}, []string{"stage", "outcome"}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "braille_ai_requests_total",
			Help: "AI backend calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		aiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "braille_ai_request_duration_seconds",
			Help:    "AI backend call duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.loginAttempts,
		m.guardDecisions,
		m.resetRequests,
		m.aiRequests,
		m.aiDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordLogin counts a login attempt. kind is "user" or "admin".
func (m *Metrics) RecordLogin(kind, outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(kind, outcome).Inc()
}

// RecordGuardDecision counts a route guard decision
func (m *Metrics) RecordGuardDecision(class, decision string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(class, decision).Inc()
}

// RecordReset counts a password reset stage
func (m *Metrics) RecordReset(stage, outcome string) {
	if m == nil {
		return
	}
	m.resetRequests.WithLabelValues(stage, outcome).Inc()
}

// RecordAIRequest counts an AI backend call and observes its duration
func (m *Metrics) RecordAIRequest(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(operation, outcome).Inc()
	m.aiDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
