package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// promauto registers against the default registry on construction, so the
// whole package shares one instance across tests the way the test in the
// WizardBeardStudio pack does it.
var (
	testOnce sync.Once
	testInst *Metrics
)

func forTest() *Metrics {
	testOnce.Do(func() {
		testInst = New()
	})
	return testInst
}

func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			if labelsMatch(m.GetLabel(), labels) && m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) != len(want) {
		return false
	}
	for _, lp := range got {
		if want[lp.GetName()] != lp.GetValue() {
			return false
		}
	}
	return true
}

func TestObserveGateEvaluationIncrementsCounter(t *testing.T) {
	m := forTest()
	before := counterValue(t, "ledgercore_fundinggate_evaluations_total", map[string]string{"gate": "commit", "decision": "pass"})
	m.ObserveGateEvaluation("commit", "pass")
	after := counterValue(t, "ledgercore_fundinggate_evaluations_total", map[string]string{"gate": "commit", "decision": "pass"})
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestObserveReconciliationMatchIncrementsByStrategy(t *testing.T) {
	m := forTest()
	before := counterValue(t, "ledgercore_reconciler_matched_total", map[string]string{"strategy": "exact"})
	m.ObserveReconciliationMatch("exact")
	after := counterValue(t, "ledgercore_reconciler_matched_total", map[string]string{"strategy": "exact"})
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.ObserveLedgerEntryPosted("settlement")
	m.ObserveLedgerReversal()
	m.ObserveGateEvaluation("pay", "hard_fail")
	m.ObserveReservationDenial("insufficient_available")
	m.ObserveReconciliationMatch("scored")
	m.ObserveReconciliationUnmatched()
	m.ObserveLiabilityClassified("recipient", "employer")
	m.ObserveInstructionTransition("accepted", "settled")
}
