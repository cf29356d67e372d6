// Package orchestrator drives a payment instruction through its state
// machine: created, queued, submitted, accepted, settled, with branches to
// failed/canceled/returned/reversed (spec §4.G). It owns rail selection
// and the one-logical-writer-per-instruction concurrency rule, but defers
// money movement to the ledger and settlement truth to the reconciler.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightpay/ledgercore/src/eventlog"
	"github.com/brightpay/ledgercore/src/fundinggate"
	"github.com/brightpay/ledgercore/src/metrics"
	"github.com/brightpay/ledgercore/src/models"
	"github.com/brightpay/ledgercore/src/rails"
	"github.com/brightpay/ledgercore/src/reservation"
	"github.com/brightpay/ledgercore/src/storage"
)

// ErrPayGateNotPassed is returned by Submit when no passing pay-gate
// evaluation exists for the instruction's batch — disbursement is
// structurally blocked until one does (spec §4.E).
var ErrPayGateNotPassed = errors.New("orchestrator: pay gate has not passed for this batch")

// Orchestrator manages payment instruction lifecycle and rail submission.
type Orchestrator struct {
	store        *storage.Store
	events       *eventlog.Log
	gate         *fundinggate.Gate
	registry     *rails.Registry
	reservations *reservation.Manager
	metrics      *metrics.Metrics
	log          *zap.Logger
}

// New constructs a payment orchestrator. m may be nil. reservations may be
// nil too, in which case Cancel skips releasing a batch's commit hold
// (useful for constructing an Orchestrator in isolation from the
// reservation stack, e.g. in tests that never call Cancel).
func New(store *storage.Store, events *eventlog.Log, gate *fundinggate.Gate, registry *rails.Registry, reservations *reservation.Manager, m *metrics.Metrics, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{store: store, events: events, gate: gate, registry: registry, reservations: reservations, metrics: m, log: logger}
}

func lockKeyForInstruction(id uuid.UUID) int64 {
	return storage.LockKey(id.String())
}

// CreateInstruction inserts a new payment instruction, emitting
// PaymentInstructionCreated only when it is genuinely new.
func (o *Orchestrator) CreateInstruction(ctx context.Context, instruction *models.PaymentInstruction) (bool, error) {
	isNew, err := o.store.InsertPaymentInstruction(ctx, instruction)
	if err != nil {
		return false, fmt.Errorf("orchestrator: create instruction: %w", err)
	}
	if isNew {
		ev := models.NewDomainEvent(models.EventPaymentInstructionCreated, models.CategoryPayment, instruction.TenantID, instruction.CorrelationID, map[string]any{
			"instruction_id": instruction.ID.String(),
			"amount":         instruction.Amount.String(),
			"purpose":        string(instruction.Purpose),
		})
		if err := o.events.Append(ctx, ev); err != nil {
			o.log.Error("orchestrator: failed to append domain event", zap.Error(err))
		}
	}
	return isNew, nil
}

// Submit moves an instruction to queued then submitted, selects a rail
// provider, and creates a payment attempt. It refuses to run unless a
// pay-gate pass has been persisted for batchRef. On a duplicate provider
// key the existing attempt is returned (idempotent re-submit).
func (o *Orchestrator) Submit(ctx context.Context, instructionID uuid.UUID, batchRef string) (*models.PaymentAttempt, error) {
	tx, err := o.store.Pool().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKeyForInstruction(instructionID)); err != nil {
		return nil, fmt.Errorf("orchestrator: lock instruction %s: %w", instructionID, err)
	}

	instruction, err := o.store.GetPaymentInstructionByID(ctx, instructionID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load instruction: %w", err)
	}

	passed, err := o.gate.HasPassed(ctx, instruction.TenantID, batchRef, models.GateTypePay)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: check pay gate: %w", err)
	}
	if !passed {
		return nil, ErrPayGateNotPassed
	}

	// The advisory lock stays held until the deferred Rollback runs when
	// Submit returns, so the transitions and attempt insert below run under it.

	if instruction.Status == models.InstructionStatusCreated {
		if err := o.transition(ctx, instruction, models.InstructionStatusQueued); err != nil {
			return nil, err
		}
	}

	provider, chosenRail, err := o.selectProvider(ctx, instruction)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: select rail provider: %w", err)
	}

	idempotencyKey := instruction.IdempotencyKey
	result, err := provider.Submit(ctx, instruction, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: submit to provider %s: %w", provider.Name(), err)
	}

	attempts, err := o.store.ListPaymentAttemptsForInstruction(ctx, instructionID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: list prior attempts: %w", err)
	}

	attempt := &models.PaymentAttempt{
		ID:                uuid.New(),
		TenantID:          instruction.TenantID,
		InstructionID:     instruction.ID,
		Rail:              chosenRail,
		Provider:          provider.Name(),
		ProviderRequestID: result.ProviderRequestID,
		Status:            result.Status,
		Retryable:         result.Retryable,
		AttemptNumber:     len(attempts) + 1,
	}

	isNew, err := o.store.InsertPaymentAttempt(ctx, attempt)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: insert attempt: %w", err)
	}

	if isNew && instruction.Status == models.InstructionStatusQueued {
		if err := o.transition(ctx, instruction, models.InstructionStatusSubmitted); err != nil {
			return nil, err
		}
		ev := models.NewDomainEvent(models.EventPaymentSubmitted, models.CategoryPayment, instruction.TenantID, instruction.CorrelationID, map[string]any{
			"instruction_id":      instruction.ID.String(),
			"attempt_id":          attempt.ID.String(),
			"provider":            attempt.Provider,
			"provider_request_id": attempt.ProviderRequestID,
		})
		if err := o.events.Append(ctx, ev); err != nil {
			o.log.Error("orchestrator: failed to append domain event", zap.Error(err))
		}

		if attempt.Status == models.AttemptStatusAccepted {
			if err := o.transition(ctx, instruction, models.InstructionStatusAccepted); err != nil {
				return nil, err
			}
			ev := models.NewDomainEvent(models.EventPaymentAccepted, models.CategoryPayment, instruction.TenantID, instruction.CorrelationID, map[string]any{
				"instruction_id": instruction.ID.String(),
			})
			if err := o.events.Append(ctx, ev); err != nil {
				o.log.Error("orchestrator: failed to append domain event", zap.Error(err))
			}
		}
	}

	return attempt, nil
}

// Cancel cancels an instruction from queued, submitted, or accepted,
// provided the rail provider allows it, and releases the batch's commit
// hold if one is still active (spec §4.D: a canceled instruction's share
// of committed funds goes back to available). batchRef identifies the
// commit-hold reservation to release; pass "" if the instruction's batch
// never held one (e.g. it was never committed through CommitPayrollBatch).
func (o *Orchestrator) Cancel(ctx context.Context, instructionID uuid.UUID, batchRef string) error {
	tx, err := o.store.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("orchestrator: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKeyForInstruction(instructionID)); err != nil {
		return fmt.Errorf("orchestrator: lock instruction %s: %w", instructionID, err)
	}

	instruction, err := o.store.GetPaymentInstructionByID(ctx, instructionID)
	if err != nil {
		return fmt.Errorf("orchestrator: load instruction: %w", err)
	}
	switch instruction.Status {
	case models.InstructionStatusQueued, models.InstructionStatusSubmitted, models.InstructionStatusAccepted:
	default:
		return fmt.Errorf("orchestrator: cannot cancel instruction in status %s", instruction.Status)
	}

	attempts, err := o.store.ListPaymentAttemptsForInstruction(ctx, instructionID)
	if err != nil {
		return fmt.Errorf("orchestrator: list attempts: %w", err)
	}
	if len(attempts) > 0 {
		latest := attempts[len(attempts)-1]
		provider, err := o.registry.Get(latest.Provider)
		if err != nil {
			return fmt.Errorf("orchestrator: resolve provider %s: %w", latest.Provider, err)
		}
		ok, err := provider.Cancel(ctx, latest.ProviderRequestID)
		if err != nil {
			return fmt.Errorf("orchestrator: provider cancel: %w", err)
		}
		if !ok {
			return fmt.Errorf("orchestrator: provider %s refused cancellation", latest.Provider)
		}
	}

	if err := o.transition(ctx, instruction, models.InstructionStatusCanceled); err != nil {
		return err
	}

	if o.reservations == nil || batchRef == "" {
		return nil
	}
	if err := o.releaseBatchHold(ctx, instruction.TenantID, batchRef, instruction.CorrelationID); err != nil {
		return fmt.Errorf("orchestrator: release batch hold: %w", err)
	}
	return nil
}

// releaseBatchHold releases the commit-hold reservation CommitPayrollBatch
// created for batchRef, if one is still active. A missing or
// already-terminal reservation is not an error: a batch may never have
// been committed through the gated path, or another canceled instruction
// in the same batch may have released it first.
func (o *Orchestrator) releaseBatchHold(ctx context.Context, tenantID uuid.UUID, batchRef string, correlationID uuid.UUID) error {
	res, err := o.store.GetReservationBySourceRef(ctx, tenantID, fmt.Sprintf("commit:%s", batchRef))
	if err != nil {
		if err == storage.ErrNotFound {
			return nil
		}
		return err
	}
	if res.Status != models.ReservationStatusActive {
		return nil
	}
	return o.reservations.Release(ctx, tenantID, res.ID, correlationID)
}

func (o *Orchestrator) transition(ctx context.Context, instruction *models.PaymentInstruction, to models.InstructionStatus) error {
	if !instruction.CanTransitionTo(to) {
		return fmt.Errorf("orchestrator: invalid transition %s -> %s", instruction.Status, to)
	}
	from := instruction.Status
	if err := o.store.TransitionPaymentInstruction(ctx, instruction.ID, instruction.Status, to); err != nil {
		return fmt.Errorf("orchestrator: persist transition: %w", err)
	}
	instruction.Status = to
	o.metrics.ObserveInstructionTransition(string(from), string(to))
	return nil
}

// allRails enumerates the closed rail enum so rail-level candidate sets can
// be built without the registry needing to expose its provider map.
var allRails = []models.Rail{models.RailACH, models.RailWire, models.RailRTP, models.RailFedNow, models.RailCheck}

// selectProvider picks the rail per chooseRail, then orders that rail's
// registered providers by advertised settlement timeline (earliest first)
// and returns the first. Provider cost and recent success rate are not
// considered, and the order among providers with equal timelines is not
// defined.
func (o *Orchestrator) selectProvider(ctx context.Context, instruction *models.PaymentInstruction) (rails.Provider, models.Rail, error) {
	chosenRail, err := o.chooseRail(instruction)
	if err != nil {
		return nil, "", err
	}
	candidates := o.registry.ForRail(chosenRail)
	if len(candidates) == 0 {
		return nil, "", fmt.Errorf("orchestrator: no provider registered for rail %s", chosenRail)
	}
	sort.Slice(candidates, func(i, j int) bool {
		ci := candidates[i].Capabilities()
		cj := candidates[j].Capabilities()
		return ci.SettlementTimeline[chosenRail] < cj.SettlementTimeline[chosenRail]
	})
	return candidates[0], chosenRail, nil
}

// chooseRail implements spec §4.G's primary rail-choice precedence: payee
// preference, then which rails can actually carry the amount, then
// urgency, then risk.
//
//  1. Payee preference: if the instruction names a rail and some provider
//     that can carry its amount supports it, that rail wins outright.
//  2. Amount limits: rails no registered provider can carry (per
//     Capabilities.MaxPerTxn) are dropped from consideration entirely.
//  3. Urgency: an urgent instruction narrows to the fastest-settling
//     remaining rail.
//  4. Risk: a high-risk payee narrows to rails that can still be recalled
//     (SupportsCancel), since an irrevocable instant rail is the worst
//     place to discover a payee was bad.
//
// Whatever rail survives all four steps is returned; selectProvider then
// breaks ties among that rail's providers.
func (o *Orchestrator) chooseRail(instruction *models.PaymentInstruction) (models.Rail, error) {
	candidates := o.railsWithCapacity(instruction.Amount)
	if len(candidates) == 0 {
		return "", fmt.Errorf("orchestrator: no rail registered that can carry amount %s", instruction.Amount)
	}

	if instruction.RailPreference != "" && containsRail(candidates, instruction.RailPreference) {
		return instruction.RailPreference, nil
	}

	if instruction.Urgency == models.UrgencyUrgent {
		if fastest, ok := o.fastestRail(candidates); ok {
			candidates = []models.Rail{fastest}
		}
	}

	if instruction.HighRiskPayee {
		if recallable := o.railsSupportingCancel(candidates); len(recallable) > 0 {
			candidates = recallable
		}
	}

	return candidates[0], nil
}

// railsWithCapacity returns every rail with at least one registered
// provider able to carry amount, per that provider's MaxPerTxn
// advertisement. A rail absent from a provider's MaxPerTxn map is treated
// as uncapped for that provider.
func (o *Orchestrator) railsWithCapacity(amount decimal.Decimal) []models.Rail {
	var out []models.Rail
	for _, r := range allRails {
		for _, p := range o.registry.ForRail(r) {
			if railCapacityOK(p.Capabilities(), r, amount) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func railCapacityOK(caps rails.Capabilities, r models.Rail, amount decimal.Decimal) bool {
	limit, ok := caps.MaxPerTxn[r]
	if !ok {
		return true
	}
	max, err := decimal.NewFromString(limit)
	if err != nil {
		return true
	}
	return amount.LessThanOrEqual(max)
}

// fastestRail returns the candidate with the lowest settlement timeline
// advertised by any of its registered providers.
func (o *Orchestrator) fastestRail(candidates []models.Rail) (models.Rail, bool) {
	var best models.Rail
	var bestTimeline int64 = -1
	found := false
	for _, r := range candidates {
		for _, p := range o.registry.ForRail(r) {
			t, ok := p.Capabilities().SettlementTimeline[r]
			if !ok {
				continue
			}
			if !found || int64(t) < bestTimeline {
				best, bestTimeline, found = r, int64(t), true
			}
		}
	}
	return best, found
}

// railsSupportingCancel narrows candidates to those with at least one
// registered provider advertising SupportsCancel.
func (o *Orchestrator) railsSupportingCancel(candidates []models.Rail) []models.Rail {
	var out []models.Rail
	for _, r := range candidates {
		for _, p := range o.registry.ForRail(r) {
			if p.Capabilities().SupportsCancel {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func containsRail(haystack []models.Rail, needle models.Rail) bool {
	for _, r := range haystack {
		if r == needle {
			return true
		}
	}
	return false
}
