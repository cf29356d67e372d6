// Package metrics wraps the Prometheus counters and histograms that the
// ledger, funding gate, reconciler, and liability attributor increment as
// they run. It carries no business logic of its own — every Observe* method
// is a thin, nil-safe wrapper so a component can be constructed with a nil
// *Metrics in a test without guarding every call site.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/histogram this module exposes. Construct one
// per process with New and share it across components.
type Metrics struct {
	ledgerEntriesPostedTotal   *prometheus.CounterVec
	ledgerReversalsTotal       prometheus.Counter
	gateEvaluationsTotal       *prometheus.CounterVec
	reservationDenialsTotal    *prometheus.CounterVec
	reconciliationMatchedTotal *prometheus.CounterVec
	reconciliationUnmatched    prometheus.Counter
	reconciliationBatchLatency prometheus.Histogram
	liabilityClassifiedTotal   *prometheus.CounterVec
	instructionTransitionsTotal *prometheus.CounterVec
}

// New registers and returns the full metric set against the default
// Prometheus registry.
func New() *Metrics {
	return &Metrics{
		ledgerEntriesPostedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgercore",
				Subsystem: "ledger",
				Name:      "entries_posted_total",
				Help:      "Total ledger entries posted, partitioned by entry type.",
			},
			[]string{"entry_type"},
		),
		ledgerReversalsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ledgercore",
				Subsystem: "ledger",
				Name:      "reversals_total",
				Help:      "Total ledger entries reversed.",
			},
		),
		gateEvaluationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgercore",
				Subsystem: "fundinggate",
				Name:      "evaluations_total",
				Help:      "Total funding gate evaluations, partitioned by gate and decision.",
			},
			[]string{"gate", "decision"},
		),
		reservationDenialsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgercore",
				Subsystem: "reservation",
				Name:      "denials_total",
				Help:      "Total reservation requests denied, partitioned by reason.",
			},
			[]string{"reason"},
		),
		reconciliationMatchedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgercore",
				Subsystem: "reconciler",
				Name:      "matched_total",
				Help:      "Total settlement records matched to a payment attempt, partitioned by match strategy.",
			},
			[]string{"strategy"},
		),
		reconciliationUnmatched: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ledgercore",
				Subsystem: "reconciler",
				Name:      "unmatched_total",
				Help:      "Total settlement records that matched no open payment attempt.",
			},
		),
		reconciliationBatchLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "ledgercore",
				Subsystem: "reconciler",
				Name:      "ingest_batch_duration_seconds",
				Help:      "Wall time to ingest one settlement batch.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		liabilityClassifiedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgercore",
				Subsystem: "liability",
				Name:      "classified_total",
				Help:      "Total liability events classified, partitioned by error origin and party.",
			},
			[]string{"error_origin", "party"},
		),
		instructionTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgercore",
				Subsystem: "orchestrator",
				Name:      "instruction_transitions_total",
				Help:      "Total payment instruction state transitions, partitioned by from/to state.",
			},
			[]string{"from", "to"},
		),
	}
}

// ObserveLedgerEntryPosted records a new (non-idempotent-replay) ledger
// posting by entry type.
func (m *Metrics) ObserveLedgerEntryPosted(entryType string) {
	if m == nil {
		return
	}
	m.ledgerEntriesPostedTotal.WithLabelValues(entryType).Inc()
}

// ObserveLedgerReversal records a reversal posting.
func (m *Metrics) ObserveLedgerReversal() {
	if m == nil {
		return
	}
	m.ledgerReversalsTotal.Inc()
}

// ObserveGateEvaluation records a Commit or Pay Gate decision.
func (m *Metrics) ObserveGateEvaluation(gate, decision string) {
	if m == nil {
		return
	}
	m.gateEvaluationsTotal.WithLabelValues(gate, decision).Inc()
}

// ObserveReservationDenial records a denied reservation request by reason
// (the reservation manager reports insufficient_available).
func (m *Metrics) ObserveReservationDenial(reason string) {
	if m == nil {
		return
	}
	m.reservationDenialsTotal.WithLabelValues(reason).Inc()
}

// ObserveReconciliationMatch records a settlement record matched to an
// attempt, either by the exact provider-key lookup or the scored fallback.
func (m *Metrics) ObserveReconciliationMatch(strategy string) {
	if m == nil {
		return
	}
	m.reconciliationMatchedTotal.WithLabelValues(strategy).Inc()
}

// ObserveReconciliationUnmatched records a settlement record that matched
// no open attempt.
func (m *Metrics) ObserveReconciliationUnmatched() {
	if m == nil {
		return
	}
	m.reconciliationUnmatched.Inc()
}

// ObserveReconciliationBatch records the wall time of one Ingest call.
func (m *Metrics) ObserveReconciliationBatch(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reconciliationBatchLatency.Observe(elapsed.Seconds())
}

// ObserveLiabilityClassified records a liability determination by origin
// and responsible party.
func (m *Metrics) ObserveLiabilityClassified(errorOrigin, party string) {
	if m == nil {
		return
	}
	m.liabilityClassifiedTotal.WithLabelValues(errorOrigin, party).Inc()
}

// ObserveInstructionTransition records a payment instruction state change.
func (m *Metrics) ObserveInstructionTransition(from, to string) {
	if m == nil {
		return
	}
	m.instructionTransitionsTotal.WithLabelValues(from, to).Inc()
}
