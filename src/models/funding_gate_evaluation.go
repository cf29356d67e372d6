package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GateType distinguishes the two funding gates.
type GateType string

const (
	GateTypeCommit GateType = "commit"
	GateTypePay    GateType = "pay"
)

// GateOutcome is the closed set of decisions a gate evaluation can reach.
type GateOutcome string

const (
	GateOutcomePass     GateOutcome = "pass"
	GateOutcomeSoftFail GateOutcome = "soft_fail"
	GateOutcomeHardFail GateOutcome = "hard_fail"
)

// GateReason is a machine-readable reason code attached to a gate evaluation.
type GateReason string

const (
	ReasonInsufficientFunds GateReason = "insufficient_funds"
	ReasonNSFReturn         GateReason = "nsf_return"
	ReasonRiskyBankChange   GateReason = "risky_bank_change"
	ReasonTaxDueShortfall   GateReason = "tax_due_shortfall"
)

// FundingGateEvaluation is an immutable audit record of a commit- or pay-gate decision.
type FundingGateEvaluation struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	TenantID        uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	GateType        GateType        `json:"gate_type" db:"gate_type"`
	BatchRef        string          `json:"batch_ref" db:"batch_ref"`
	Outcome         GateOutcome     `json:"outcome" db:"outcome"`
	RequiredAmount  decimal.Decimal `json:"required_amount" db:"required_amount"`
	AvailableAmount decimal.Decimal `json:"available_amount" db:"available_amount"`
	Reasons         []GateReason    `json:"reasons,omitempty" db:"reasons"`
	IdempotencyKey  string          `json:"idempotency_key" db:"idempotency_key"`
	CorrelationID   uuid.UUID       `json:"correlation_id" db:"correlation_id"`
	EvaluatedAt     time.Time       `json:"evaluated_at" db:"evaluated_at"`
}

// PayGateIdempotencyKey builds the canonical idempotency key for a pay-gate
// evaluation of a given (tenant, batch), per spec §4.E.
func PayGateIdempotencyKey(batchRef string) string {
	return "pay_gate:" + batchRef
}

// CommitGateIdempotencyKey builds the canonical idempotency key for a
// commit-gate evaluation of a given (tenant, batch).
func CommitGateIdempotencyKey(batchRef string) string {
	return "commit_gate:" + batchRef
}
