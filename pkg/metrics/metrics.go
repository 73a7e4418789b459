// Package metrics exposes Prometheus counters for dispatched actions and
// association changes. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeUnhandled = "unhandled"
	OutcomeError     = "error"
)

// Metrics tracks request dispatch and reconciliation.
type Metrics struct {
	Actions         *prometheus.CounterVec
	ActionDuration  *prometheus.HistogramVec
	LinksAdded      *prometheus.CounterVec
	LinksRemoved    *prometheus.CounterVec
	StaleReferences *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Actions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "autoforge_actions_total",
			Help: "Dispatched actions by model, action and outcome",
		}, []string{"model", "action", "outcome"}),
		ActionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "autoforge_action_duration_seconds",
			Help:    "Duration of dispatched actions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"model", "action"}),
		LinksAdded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "autoforge_association_links_added_total",
			Help: "Join rows linked by association reconciliation",
		}, []string{"model", "association"}),
		LinksRemoved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "autoforge_association_links_removed_total",
			Help: "Join rows unlinked by association reconciliation",
		}, []string{"model", "association"}),
		StaleReferences: f.NewCounterVec(prometheus.CounterOpts{
			Name: "autoforge_association_stale_references_total",
			Help: "Reconciliations aborted by an id that no longer resolves",
		}, []string{"model", "association"}),
	}
}

// ObserveAction records one dispatched action.
// Call with time.Now() at the start of the action.
func (m *Metrics) ObserveAction(model, action, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(model, action, outcome).Inc()
	m.ActionDuration.WithLabelValues(model, action).Observe(time.Since(start).Seconds())
}

// ObserveReconcile records the links applied by one reconciliation.
func (m *Metrics) ObserveReconcile(model, association string, added, removed int) {
	if m == nil {
		return
	}
	m.LinksAdded.WithLabelValues(model, association).Add(float64(added))
	m.LinksRemoved.WithLabelValues(model, association).Add(float64(removed))
}

// IncrementStale records an aborted reconciliation.
func (m *Metrics) IncrementStale(model, association string) {
	if m == nil {
		return
	}
	m.StaleReferences.WithLabelValues(model, association).Inc()
}
