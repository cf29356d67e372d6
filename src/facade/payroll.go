package facade

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightpay/ledgercore/src/fundinggate"
	"github.com/brightpay/ledgercore/src/models"
	"github.com/brightpay/ledgercore/src/storage"
)

// CommitPayrollBatchInput carries a pay run's funding posture at the
// moment commit is requested.
type CommitPayrollBatchInput struct {
	TenantID        uuid.UUID
	LegalEntityID   uuid.UUID
	BatchRef        string
	Currency        string
	FundingModel    models.FundingModel
	RequiredAmount  decimal.Decimal
	Mode            fundinggate.Mode
	NSFReturn       bool
	RiskyBankChange bool
	TaxDueShortfall bool
	CorrelationID   uuid.UUID
}

// CommitPayrollBatchResult is what the Commit Gate decided, plus the
// reservation it created on a pass (spec §4.D: only a passing gate creates
// a hold).
type CommitPayrollBatchResult struct {
	Evaluation  *models.FundingGateEvaluation
	Reservation *models.Reservation
	IsNew       bool
}

// CommitPayrollBatch evaluates the Commit Gate against the client funding
// clearing account's current availability and, on pass, reserves the
// required amount so a concurrent commit can't also see it as available
// (spec §4.E, §4.D).
func (f *Facade) CommitPayrollBatch(ctx context.Context, in CommitPayrollBatchInput) (*CommitPayrollBatchResult, error) {
	clearing, err := f.store.GetOrCreateLedgerAccount(ctx, in.TenantID, in.LegalEntityID, models.AccountClientFundingClearing, in.Currency)
	if err != nil {
		return nil, fmt.Errorf("facade: resolve clearing account: %w", err)
	}

	activeReserved, err := f.reservations.ActiveSum(ctx, clearing.ID)
	if err != nil {
		return nil, fmt.Errorf("facade: sum active reservations: %w", err)
	}
	balance, err := f.ledger.GetBalance(ctx, clearing.ID, activeReserved)
	if err != nil {
		return nil, fmt.Errorf("facade: compute balance: %w", err)
	}

	eval, isNew, err := f.gate.EvaluateCommit(ctx, fundinggate.Input{
		TenantID:        in.TenantID,
		BatchRef:        in.BatchRef,
		RequiredAmount:  in.RequiredAmount,
		AvailableAmount: balance.Available,
		NSFReturn:       in.NSFReturn,
		RiskyBankChange: in.RiskyBankChange,
		TaxDueShortfall: in.TaxDueShortfall,
		CorrelationID:   in.CorrelationID,
	}, in.Mode)
	if err != nil {
		return nil, fmt.Errorf("facade: evaluate commit gate: %w", err)
	}

	result := &CommitPayrollBatchResult{Evaluation: eval, IsNew: isNew}
	if eval.Outcome != models.GateOutcomePass {
		return result, nil
	}

	res, _, err := f.reservations.Create(ctx, in.TenantID, clearing.ID, models.ReserveTypeCommitHold, in.RequiredAmount, fmt.Sprintf("commit:%s", in.BatchRef), in.CorrelationID)
	if err != nil {
		return nil, fmt.Errorf("facade: reserve committed funds: %w", err)
	}
	result.Reservation = res
	return result, nil
}

// ExecutePaymentsInput names the batch and the instructions to disburse.
type ExecutePaymentsInput struct {
	TenantID        uuid.UUID
	LegalEntityID   uuid.UUID
	BatchRef        string
	Currency        string
	RequiredAmount  decimal.Decimal
	InstructionIDs  []uuid.UUID
	NSFReturn       bool
	RiskyBankChange bool
	TaxDueShortfall bool
	CorrelationID   uuid.UUID
}

// ExecutePaymentsResult pairs each instruction with the attempt (or error)
// submitting it produced.
type ExecutePaymentsResult struct {
	InstructionID uuid.UUID
	Attempt       *models.PaymentAttempt
	Err           error
}

// ExecutePayments runs the Pay Gate against current availability, then —
// only if it passes — submits every named instruction. The gate's verdict
// is stored per batch, so a repeat call for the same batch gets the first
// evaluation back rather than a new one. The gate
// check happens once for the whole batch since all instructions in a
// batch draw on the same clearing account (spec §4.E: "structurally
// impossible to disburse without a pay-gate pass").
func (f *Facade) ExecutePayments(ctx context.Context, in ExecutePaymentsInput) ([]ExecutePaymentsResult, error) {
	clearing, err := f.store.GetOrCreateLedgerAccount(ctx, in.TenantID, in.LegalEntityID, models.AccountClientFundingClearing, in.Currency)
	if err != nil {
		return nil, fmt.Errorf("facade: resolve clearing account: %w", err)
	}

	activeReserved, err := f.reservations.ActiveSum(ctx, clearing.ID)
	if err != nil {
		return nil, fmt.Errorf("facade: sum active reservations: %w", err)
	}
	balance, err := f.ledger.GetBalance(ctx, clearing.ID, activeReserved)
	if err != nil {
		return nil, fmt.Errorf("facade: compute balance: %w", err)
	}

	eval, _, err := f.gate.EvaluatePay(ctx, fundinggate.Input{
		TenantID:        in.TenantID,
		BatchRef:        in.BatchRef,
		RequiredAmount:  in.RequiredAmount,
		AvailableAmount: balance.Available,
		NSFReturn:       in.NSFReturn,
		RiskyBankChange: in.RiskyBankChange,
		TaxDueShortfall: in.TaxDueShortfall,
		CorrelationID:   in.CorrelationID,
	})
	if err != nil {
		return nil, fmt.Errorf("facade: evaluate pay gate: %w", err)
	}
	if eval.Outcome != models.GateOutcomePass {
		return nil, fundinggate.ErrPayGateFailed
	}

	results := make([]ExecutePaymentsResult, len(in.InstructionIDs))
	anyErr := false
	for i, id := range in.InstructionIDs {
		attempt, err := f.orchestrator.Submit(ctx, id, in.BatchRef)
		results[i] = ExecutePaymentsResult{InstructionID: id, Attempt: attempt, Err: err}
		if err != nil {
			anyErr = true
		}
	}

	if !anyErr {
		if err := f.consumeBatchHold(ctx, in.TenantID, in.BatchRef, in.CorrelationID); err != nil {
			return results, fmt.Errorf("facade: consume batch hold: %w", err)
		}
	}

	return results, nil
}

// consumeBatchHold marks the commit-hold reservation CommitPayrollBatch
// created for batchRef as spent, once every instruction in the batch has
// submitted successfully (spec §4.D: a reservation is consumed, not
// released, when the money it held actually moves). A missing or
// already-terminal reservation is not an error: a batch may never have
// been committed through the gated path.
func (f *Facade) consumeBatchHold(ctx context.Context, tenantID uuid.UUID, batchRef string, correlationID uuid.UUID) error {
	res, err := f.store.GetReservationBySourceRef(ctx, tenantID, fmt.Sprintf("commit:%s", batchRef))
	if err != nil {
		if err == storage.ErrNotFound {
			return nil
		}
		return err
	}
	if res.Status != models.ReservationStatusActive {
		return nil
	}
	return f.reservations.Consume(ctx, tenantID, res.ID, correlationID)
}
