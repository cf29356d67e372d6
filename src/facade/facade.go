// Package facade is the single library entry point through which
// integrators call the core (spec §6): commit_payroll_batch,
// execute_payments, ingest_settlement_feed, handle_provider_callback,
// get_balance, replay_events. Internal services (storage, ledger,
// reservation, funding gate, orchestrator, reconciler, liability
// attributor) are not part of this interface; callers only ever hold a
// *Facade. Modeled on the teacher's LedgerReconciliationService, which
// coordinates several sub-services constructed once behind one object.
package facade

import (
	"go.uber.org/zap"

	"github.com/brightpay/ledgercore/src/eventlog"
	"github.com/brightpay/ledgercore/src/fundinggate"
	"github.com/brightpay/ledgercore/src/ledger"
	"github.com/brightpay/ledgercore/src/liability"
	"github.com/brightpay/ledgercore/src/metrics"
	"github.com/brightpay/ledgercore/src/orchestrator"
	"github.com/brightpay/ledgercore/src/rails"
	"github.com/brightpay/ledgercore/src/reconciler"
	"github.com/brightpay/ledgercore/src/reservation"
	"github.com/brightpay/ledgercore/src/storage"
)

// Facade coordinates every sub-component behind the six operations of
// spec §6. Construct one per process and share it across callers; every
// sub-component is already safe for concurrent use.
type Facade struct {
	store        *storage.Store
	events       *eventlog.Log
	ledger       *ledger.Engine
	reservations *reservation.Manager
	gate         *fundinggate.Gate
	orchestrator *orchestrator.Orchestrator
	reconciler   *reconciler.Reconciler
	liability    *liability.Attributor
	registry     *rails.Registry
	log          *zap.Logger
}

// New wires the full stack: a store, event log, and metrics registry are
// shared across every sub-component.
func New(store *storage.Store, registry *rails.Registry, m *metrics.Metrics, logger *zap.Logger) *Facade {
	if logger == nil {
		logger = zap.NewNop()
	}
	events := eventlog.New(store, logger)
	ledgerEngine := ledger.New(store, events, m, logger)
	reservations := reservation.New(store, ledgerEngine, events, m, logger)
	gate := fundinggate.New(store, events, m, logger)
	liabilityAttributor := liability.New(store, events, m, logger)
	orch := orchestrator.New(store, events, gate, registry, reservations, m, logger)
	recon := reconciler.New(store, ledgerEngine, events, liabilityAttributor, m, 0, logger)

	return &Facade{
		store:        store,
		events:       events,
		ledger:       ledgerEngine,
		reservations: reservations,
		gate:         gate,
		orchestrator: orch,
		reconciler:   recon,
		liability:    liabilityAttributor,
		registry:     registry,
		log:          logger,
	}
}
