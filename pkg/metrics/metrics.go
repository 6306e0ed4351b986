// Package metrics exposes prometheus collectors for the send pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all collectors. It is passed explicitly to the components
// that record into it.
type Metrics struct {
	submissionAttempts   *prometheus.CounterVec
	submissions          *prometheus.CounterVec
	confirmations        *prometheus.CounterVec
	confirmationDuration *prometheus.HistogramVec
	balanceChecks        *prometheus.CounterVec
	scenarios            *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		submissionAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipsend_submission_attempts_total",
				Help: "Submission attempts by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipsend_submissions_total",
				Help: "Submissions after retry by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		confirmations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipsend_confirmations_total",
				Help: "Confirmation polling results by final status",
			},
			[]string{"status"},
		),
		confirmationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tipsend_confirmation_duration_seconds",
				Help:    "Time from first poll to final status",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"status"},
		),
		balanceChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipsend_balance_checks_total",
				Help: "Balance guard decisions",
			},
			[]string{"result"},
		),
		scenarios: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipsend_scenarios_total",
				Help: "Scenario runs by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
	}
}

// RecordAttempt records one submission attempt.
func (m *Metrics) RecordAttempt(endpoint string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.submissionAttempts.WithLabelValues(endpoint, result).Inc()
}

// RecordSubmission records the outcome of a retried submission.
func (m *Metrics) RecordSubmission(endpoint string, ok bool) {
	if m == nil {
		return
	}
	outcome := "submitted"
	if !ok {
		outcome = "failed"
	}
	m.submissions.WithLabelValues(endpoint, outcome).Inc()
}

// RecordConfirmation records a final polling status.
func (m *Metrics) RecordConfirmation(status string, took time.Duration) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(status).Inc()
	m.confirmationDuration.WithLabelValues(status).Observe(took.Seconds())
}

// RecordBalanceCheck records a guard decision.
func (m *Metrics) RecordBalanceCheck(sufficient bool) {
	if m == nil {
		return
	}
	result := "sufficient"
	if !sufficient {
		result = "insufficient"
	}
	m.balanceChecks.WithLabelValues(result).Inc()
}

// RecordScenario records a finished scenario run.
func (m *Metrics) RecordScenario(kind, outcome string) {
	if m == nil {
		return
	}
	m.scenarios.WithLabelValues(kind, outcome).Inc()
}
