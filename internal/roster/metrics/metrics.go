// Package metrics exposes Prometheus instrumentation for the roster engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for reconciliation attempts.
const (
	OutcomeApplied  = "applied"
	OutcomeStale    = "stale"
	OutcomeLocked   = "locked"
	OutcomeRejected = "rejected"
	OutcomeWarnings = "warnings"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	Reconciliations *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
	Issues          *prometheus.CounterVec
}

// New registers the collectors on the given registerer. Pass
// prometheus.DefaultRegisterer in the binary and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Reconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "retiro_roster_reconciliations_total",
			Help: "Reconciliation attempts by roster kind and outcome",
		}, []string{"kind", "outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "retiro_roster_reconcile_duration_seconds",
			Help:    "Wall time of reconciliation attempts",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		Issues: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "retiro_roster_issues_total",
			Help: "Validation findings by issue code",
		}, []string{"code"}),
	}
}

// ObserveReconcile records one attempt.
func (m *Metrics) ObserveReconcile(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Reconciliations.WithLabelValues(kind, outcome).Inc()
	m.Duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// CountIssue records one validation finding.
func (m *Metrics) CountIssue(code string) {
	if m == nil {
		return
	}
	m.Issues.WithLabelValues(code).Inc()
}
