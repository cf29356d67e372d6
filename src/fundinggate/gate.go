// Package fundinggate implements the two-gate funding model: a
// policy-configurable Commit Gate evaluated before payroll is marked
// committed, and an always-strict Pay Gate that must pass immediately
// before disbursement (spec §4.E). Both gates write an immutable
// FundingGateEvaluation row; neither gate ever mutates an existing one.
package fundinggate

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightpay/ledgercore/src/eventlog"
	"github.com/brightpay/ledgercore/src/metrics"
	"github.com/brightpay/ledgercore/src/models"
	"github.com/brightpay/ledgercore/src/storage"
)

// ErrPayGateFailed is returned by a caller's own fresh Pay Gate evaluation
// when the outcome is not pass — distinct from orchestrator.ErrPayGateNotPassed,
// which fires when no evaluation has been persisted for the batch at all.
var ErrPayGateFailed = errors.New("fundinggate: pay gate evaluation did not pass")

// Mode is the configurable strictness of the Commit Gate. The Pay Gate has
// no Mode: it is always evaluated as if Strict.
type Mode string

const (
	ModeStrict Mode = "strict"
	ModeHybrid Mode = "hybrid"
)

// Gate evaluates funding availability against a required amount and writes
// the immutable evaluation record.
type Gate struct {
	store   *storage.Store
	events  *eventlog.Log
	metrics *metrics.Metrics
	log     *zap.Logger
}

// New constructs a funding gate evaluator. m may be nil.
func New(store *storage.Store, events *eventlog.Log, m *metrics.Metrics, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{store: store, events: events, metrics: m, log: logger}
}

func lockKeyForBatch(batchRef string) int64 {
	return storage.LockKey(batchRef)
}

// Input carries everything a gate decision is computed from.
type Input struct {
	TenantID      uuid.UUID
	BatchRef      string
	RequiredAmount decimal.Decimal
	AvailableAmount decimal.Decimal
	NSFReturn      bool
	RiskyBankChange bool
	TaxDueShortfall bool
	CorrelationID  uuid.UUID
}

// decide is the pure function underlying both gates: given the inputs and
// whether hard failures are forced to hard_fail (Pay Gate, always) or may
// soften to soft_fail under hybrid mode (Commit Gate), compute the outcome
// and reasons.
func decide(in Input, mode Mode) (models.GateOutcome, []models.GateReason) {
	var reasons []models.GateReason
	if in.NSFReturn {
		reasons = append(reasons, models.ReasonNSFReturn)
	}
	if in.RiskyBankChange {
		reasons = append(reasons, models.ReasonRiskyBankChange)
	}
	if in.TaxDueShortfall {
		reasons = append(reasons, models.ReasonTaxDueShortfall)
	}
	if in.AvailableAmount.LessThan(in.RequiredAmount) {
		reasons = append(reasons, models.ReasonInsufficientFunds)
	}

	if len(reasons) == 0 {
		return models.GateOutcomePass, nil
	}
	if mode == ModeHybrid {
		return models.GateOutcomeSoftFail, reasons
	}
	return models.GateOutcomeHardFail, reasons
}

// EvaluateCommit runs the Commit Gate. Under strict mode a hard_fail blocks
// commit entirely; under hybrid mode the same inputs soften to soft_fail,
// which allows commit but still blocks the later Pay Gate from passing
// on insufficient funds. Per this module's resolution of the commit-gate
// Open Question, a soft_fail creates no reservation — only pass does.
func (g *Gate) EvaluateCommit(ctx context.Context, in Input, mode Mode) (*models.FundingGateEvaluation, bool, error) {
	return g.evaluate(ctx, in, models.GateTypeCommit, mode, models.CommitGateIdempotencyKey(in.BatchRef))
}

// EvaluatePay runs the Pay Gate. It is always strict regardless of the
// tenant's commit-gate mode: any reason present hard-fails, full stop.
// The orchestrator's submit path is structurally required to check for a
// persisted pass before it will create a payment attempt (spec §4.E).
func (g *Gate) EvaluatePay(ctx context.Context, in Input) (*models.FundingGateEvaluation, bool, error) {
	return g.evaluate(ctx, in, models.GateTypePay, ModeStrict, models.PayGateIdempotencyKey(in.BatchRef))
}

func (g *Gate) evaluate(ctx context.Context, in Input, gateType models.GateType, mode Mode, idempotencyKey string) (*models.FundingGateEvaluation, bool, error) {
	tx, err := g.store.Pool().BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("fundinggate: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKeyForBatch(in.BatchRef)); err != nil {
		return nil, false, fmt.Errorf("fundinggate: lock batch %s: %w", in.BatchRef, err)
	}

	var existing models.FundingGateEvaluation
	var reasons []string
	err = tx.QueryRow(ctx, `
		SELECT id, tenant_id, gate_type, batch_ref, outcome, required_amount,
		       available_amount, reasons, idempotency_key, correlation_id, evaluated_at
		FROM funding_gate_evaluations WHERE tenant_id = $1 AND idempotency_key = $2`,
		in.TenantID, idempotencyKey,
	).Scan(&existing.ID, &existing.TenantID, &existing.GateType, &existing.BatchRef, &existing.Outcome,
		&existing.RequiredAmount, &existing.AvailableAmount, &reasons, &existing.IdempotencyKey,
		&existing.CorrelationID, &existing.EvaluatedAt)
	if err == nil {
		existing.Reasons = make([]models.GateReason, len(reasons))
		for i, r := range reasons {
			existing.Reasons[i] = models.GateReason(r)
		}
		g.metrics.ObserveGateEvaluation(string(gateType), string(existing.Outcome))
		return &existing, false, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("fundinggate: idempotency check: %w", err)
	}

	outcome, gateReasons := decide(in, mode)
	eval := &models.FundingGateEvaluation{
		ID:              uuid.New(),
		TenantID:        in.TenantID,
		GateType:        gateType,
		BatchRef:        in.BatchRef,
		Outcome:         outcome,
		RequiredAmount:  in.RequiredAmount,
		AvailableAmount: in.AvailableAmount,
		Reasons:         gateReasons,
		IdempotencyKey:  idempotencyKey,
		CorrelationID:   in.CorrelationID,
	}

	reasonStrs := make([]string, len(gateReasons))
	for i, r := range gateReasons {
		reasonStrs[i] = string(r)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO funding_gate_evaluations
			(id, tenant_id, gate_type, batch_ref, outcome, required_amount,
			 available_amount, reasons, idempotency_key, correlation_id, evaluated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now())`,
		eval.ID, eval.TenantID, eval.GateType, eval.BatchRef, eval.Outcome, eval.RequiredAmount,
		eval.AvailableAmount, reasonStrs, eval.IdempotencyKey, eval.CorrelationID)
	if err != nil {
		return nil, false, fmt.Errorf("fundinggate: insert evaluation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("fundinggate: commit: %w", err)
	}

	g.metrics.ObserveGateEvaluation(string(gateType), string(outcome))
	if outcome != models.GateOutcomePass {
		ev := models.NewDomainEvent(models.EventFundingBlocked, models.CategoryFunding, in.TenantID, in.CorrelationID, map[string]any{
			"batch_ref": in.BatchRef,
			"gate_type": string(gateType),
			"outcome":   string(outcome),
			"reasons":   reasonStrs,
		})
		if err := g.events.Append(ctx, ev); err != nil {
			g.log.Error("fundinggate: failed to append domain event", zap.Error(err))
		}
	}

	return eval, true, nil
}

// HasPassed reports whether a persisted gate evaluation for (tenant, batch,
// gateType) exists with outcome pass. The orchestrator calls this for
// GateTypePay immediately before creating any payment attempt — structurally
// refusing to disburse without it, per spec §4.E.
func (g *Gate) HasPassed(ctx context.Context, tenantID uuid.UUID, batchRef string, gateType models.GateType) (bool, error) {
	key := models.PayGateIdempotencyKey(batchRef)
	if gateType == models.GateTypeCommit {
		key = models.CommitGateIdempotencyKey(batchRef)
	}
	eval, err := g.store.GetFundingGateEvaluation(ctx, tenantID, key)
	if err != nil {
		if err == storage.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("fundinggate: load evaluation: %w", err)
	}
	return eval.Outcome == models.GateOutcomePass, nil
}
