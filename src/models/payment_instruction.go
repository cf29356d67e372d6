package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstructionStatus is the payment instruction's state machine position.
type InstructionStatus string

const (
	InstructionStatusCreated   InstructionStatus = "created"
	InstructionStatusQueued    InstructionStatus = "queued"
	InstructionStatusSubmitted InstructionStatus = "submitted"
	InstructionStatusAccepted  InstructionStatus = "accepted"
	InstructionStatusSettled   InstructionStatus = "settled"
	InstructionStatusFailed    InstructionStatus = "failed"
	InstructionStatusCanceled  InstructionStatus = "canceled"
	InstructionStatusReturned  InstructionStatus = "returned"
	InstructionStatusReversed  InstructionStatus = "reversed"
)

// instructionTransitions is the single source of truth for valid forward
// edges of the instruction state machine (spec §4.G). Both the in-memory
// guard (CanTransitionTo) and the storage-boundary guard read this table.
var instructionTransitions = map[InstructionStatus][]InstructionStatus{
	InstructionStatusCreated:   {InstructionStatusQueued},
	InstructionStatusQueued:    {InstructionStatusSubmitted, InstructionStatusCanceled},
	InstructionStatusSubmitted: {InstructionStatusAccepted, InstructionStatusFailed, InstructionStatusCanceled},
	InstructionStatusAccepted:  {InstructionStatusSettled, InstructionStatusFailed, InstructionStatusReturned, InstructionStatusReversed, InstructionStatusCanceled},
	InstructionStatusSettled:   {InstructionStatusReturned, InstructionStatusReversed},
	InstructionStatusFailed:    {},
	InstructionStatusCanceled:  {},
	InstructionStatusReturned:  {},
	InstructionStatusReversed:  {},
}

// InstructionTransitions exposes the transition table for storage-boundary enforcement.
func InstructionTransitions() map[InstructionStatus][]InstructionStatus {
	return instructionTransitions
}

// PayeeType names the kind of counterparty an instruction pays.
type PayeeType string

const (
	PayeeTypeEmployee   PayeeType = "employee"
	PayeeTypeTaxAuthority PayeeType = "tax_authority"
	PayeeTypeThirdParty PayeeType = "third_party"
)

// InstructionPurpose names the business reason for the money movement.
type InstructionPurpose string

const (
	PurposeNetPay      InstructionPurpose = "net_pay"
	PurposeTax         InstructionPurpose = "tax"
	PurposeThirdParty  InstructionPurpose = "third_party"
	PurposeFee         InstructionPurpose = "fee"
)

// Direction is the money-movement direction relative to the PSP.
type Direction string

const (
	DirectionCredit Direction = "credit" // PSP pays out to payee
	DirectionDebit  Direction = "debit"  // PSP pulls funds in
)

// InstructionUrgency signals how quickly an instruction needs to settle,
// feeding the rail-choice precedence in the orchestrator (spec §4.G): an
// urgent instruction narrows rail choice to the fastest-settling option
// still able to carry its amount.
type InstructionUrgency string

const (
	UrgencyStandard InstructionUrgency = "standard"
	UrgencyUrgent   InstructionUrgency = "urgent"
)

// PaymentInstruction is the business intent to move money; distinct from
// attempts (a rail submission) and settlements (external truth).
type PaymentInstruction struct {
	ID                      uuid.UUID          `json:"id" db:"id"`
	TenantID                uuid.UUID          `json:"tenant_id" db:"tenant_id"`
	LegalEntityID           uuid.UUID          `json:"legal_entity_id" db:"legal_entity_id"`
	Purpose                 InstructionPurpose `json:"purpose" db:"purpose"`
	Direction               Direction          `json:"direction" db:"direction"`
	Amount                  decimal.Decimal    `json:"amount" db:"amount"`
	Currency                string             `json:"currency" db:"currency"`
	PayeeType               PayeeType          `json:"payee_type" db:"payee_type"`
	PayeeRef                string             `json:"payee_ref" db:"payee_ref"`
	RequestedSettlementDate time.Time          `json:"requested_settlement_date" db:"requested_settlement_date"`
	Status                  InstructionStatus  `json:"status" db:"status"`
	IdempotencyKey          string             `json:"idempotency_key" db:"idempotency_key"`
	SourceType              SourceType         `json:"source_type" db:"source_type"`
	SourceID                uuid.UUID          `json:"source_id" db:"source_id"`
	CorrelationID           uuid.UUID          `json:"correlation_id" db:"correlation_id"`
	Metadata                map[string]any     `json:"metadata,omitempty" db:"metadata"`
	RailPreference          Rail               `json:"rail_preference,omitempty" db:"rail_preference"`
	Urgency                 InstructionUrgency `json:"urgency" db:"urgency"`
	HighRiskPayee           bool               `json:"high_risk_payee" db:"high_risk_payee"`
	CreatedAt               time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at" db:"updated_at"`
}

// CanTransitionTo reports whether newStatus is a valid forward edge from the
// instruction's current status.
func (p *PaymentInstruction) CanTransitionTo(newStatus InstructionStatus) bool {
	for _, s := range instructionTransitions[p.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the instruction has reached a state with no
// further forward edges.
func (p *PaymentInstruction) IsTerminal() bool {
	return len(instructionTransitions[p.Status]) == 0
}

// NewPaymentInstruction builds a fresh instruction in the created state.
func NewPaymentInstruction(tenantID, legalEntityID uuid.UUID, purpose InstructionPurpose, direction Direction, amount decimal.Decimal, idempotencyKey string) *PaymentInstruction {
	now := time.Now()
	return &PaymentInstruction{
		ID:             uuid.New(),
		TenantID:       tenantID,
		LegalEntityID:  legalEntityID,
		Purpose:        purpose,
		Direction:      direction,
		Amount:         amount,
		Currency:       "USD",
		Status:         InstructionStatusCreated,
		IdempotencyKey: idempotencyKey,
		Urgency:        UrgencyStandard,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
