// Package observability holds the Prometheus metrics for the rotation
// engine. Metrics are registered via promauto and served on the API's
// /metrics endpoint.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Scheduler Metrics ──────────────────────────────────────────────────────

// TicksTotal counts scheduler recomputation ticks.
var TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rotatechain",
	Subsystem: "scheduler",
	Name:      "ticks_total",
	Help:      "Total scheduler recomputation ticks.",
})

// RoundsAdvanced counts round boundary crossings.
var RoundsAdvanced = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rotatechain",
	Subsystem: "scheduler",
	Name:      "rounds_advanced_total",
	Help:      "Total chain round advances.",
})

// ActiveSchedulers tracks chains currently being ticked.
var ActiveSchedulers = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "rotatechain",
	Subsystem: "scheduler",
	Name:      "active",
	Help:      "Number of chains with a live rotation scheduler.",
})

// ChainProgress tracks funding progress per chain.
var ChainProgress = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "rotatechain",
	Subsystem: "chain",
	Name:      "progress_percent",
	Help:      "Funding progress toward the chain target, clamped to [0,100].",
}, []string{"chain"})

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// ContributionsRecorded counts accepted contributions.
var ContributionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rotatechain",
	Subsystem: "ledger",
	Name:      "contributions_total",
	Help:      "Total contributions recorded against chain targets.",
})

// ─── Loan Metrics ───────────────────────────────────────────────────────────

// LoanTransitions counts loan state transitions by target state.
var LoanTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rotatechain",
	Subsystem: "loans",
	Name:      "transitions_total",
	Help:      "Total loan state transitions by resulting state.",
}, []string{"state"})

// ─── Collaborator Metrics ───────────────────────────────────────────────────

// ExternalCallFailures counts failed collaborator calls by operation.
var ExternalCallFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rotatechain",
	Subsystem: "external",
	Name:      "failures_total",
	Help:      "Total failed calls to external collaborators by operation.",
}, []string{"op"})
