// Package metrics exposes Prometheus instrumentation for registration and
// identity verification.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/alumni-connect-server/internal/model"
	"github.com/dtroode/alumni-connect-server/internal/ocr"
	"github.com/dtroode/alumni-connect-server/internal/verification"
)

const resultOK = "ok"

var _ verification.Recorder = (*Metrics)(nil)

// Metrics holds every collector of the service. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	VerificationOutcome *prometheus.CounterVec
	ExtractionLatency   *prometheus.HistogramVec
	AccountsRegistered  *prometheus.CounterVec
	RateLimited         *prometheus.CounterVec
}

// New registers all collectors, plus Go runtime and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		VerificationOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_verification_outcomes_total",
			Help: "Verification outcomes by role, evidence strategy and result",
		}, []string{"role", "strategy", "verified"}),

		ExtractionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alumni_ocr_extraction_duration_seconds",
			Help:    "Duration of OCR extraction attempts by result category",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"result"}), // result: "ok", "fetch", "engine", "bad_image", "timeout"

		AccountsRegistered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_accounts_registered_total",
			Help: "Accounts created through public registration",
		}, []string{"role", "verified"}),

		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "alumni_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"scope"}),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOutcome records one verification outcome.
func (m *Metrics) ObserveOutcome(role model.Role, strategy string, verified bool) {
	if m != nil {
		m.VerificationOutcome.WithLabelValues(string(role), strategy, strconv.FormatBool(verified)).Inc()
	}
}

// ObserveExtraction records the duration of one OCR attempt.
func (m *Metrics) ObserveExtraction(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = string(ocr.CategoryOf(err))
	}
	m.ExtractionLatency.WithLabelValues(result).Observe(d.Seconds())
}

// IncrementRegistered records a created account.
func (m *Metrics) IncrementRegistered(role model.Role, verified bool) {
	if m != nil {
		m.AccountsRegistered.WithLabelValues(string(role), strconv.FormatBool(verified)).Inc()
	}
}

// IncrementRateLimited records a rejected request.
func (m *Metrics) IncrementRateLimited(scope string) {
	if m != nil {
		m.RateLimited.WithLabelValues(scope).Inc()
	}
}
