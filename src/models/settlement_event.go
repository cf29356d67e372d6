package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementStatus is the canonical settlement-event state, closed set per spec §3.
type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "pending"
	SettlementStatusCreated   SettlementStatus = "created"
	SettlementStatusSubmitted SettlementStatus = "submitted"
	SettlementStatusAccepted  SettlementStatus = "accepted"
	SettlementStatusSettled   SettlementStatus = "settled"
	SettlementStatusFailed    SettlementStatus = "failed"
	SettlementStatusReturned  SettlementStatus = "returned"
	SettlementStatusRejected  SettlementStatus = "rejected"
	SettlementStatusCanceled  SettlementStatus = "canceled"
	SettlementStatusReversed  SettlementStatus = "reversed"
)

// settlementTransitions is the forward-edge table for the settlement-event
// state machine, spec §4.H.
var settlementTransitions = map[SettlementStatus][]SettlementStatus{
	SettlementStatusPending:   {SettlementStatusSubmitted, SettlementStatusCanceled},
	SettlementStatusSubmitted: {SettlementStatusAccepted},
	SettlementStatusAccepted:  {SettlementStatusSettled, SettlementStatusReturned, SettlementStatusRejected},
	SettlementStatusSettled:   {SettlementStatusReturned},
	SettlementStatusFailed:    {},
	SettlementStatusReturned:  {},
	SettlementStatusRejected:  {},
	SettlementStatusCanceled:  {},
	SettlementStatusReversed:  {},
}

// SettlementTransitions exposes the transition table for storage-boundary enforcement.
func SettlementTransitions() map[SettlementStatus][]SettlementStatus {
	return settlementTransitions
}

// ACHReturnCode enumerates the seeded ACH return reasons (spec §6).
type ACHReturnCode string

const (
	ACHReturnR01 ACHReturnCode = "R01" // Insufficient Funds
	ACHReturnR02 ACHReturnCode = "R02" // Account Closed
	ACHReturnR03 ACHReturnCode = "R03" // No Account/Unable to Locate Account
	ACHReturnR04 ACHReturnCode = "R04" // Invalid Account Number
	ACHReturnR05 ACHReturnCode = "R05" // Unauthorized Debit to Consumer Account
	ACHReturnR06 ACHReturnCode = "R06" // Returned per ODFI's Request
	ACHReturnR07 ACHReturnCode = "R07" // Authorization Revoked by Customer
	ACHReturnR08 ACHReturnCode = "R08" // Payment Stopped
	ACHReturnR09 ACHReturnCode = "R09" // Uncollected Funds
	ACHReturnR10 ACHReturnCode = "R10" // Customer Advises Not Authorized
	ACHReturnR16 ACHReturnCode = "R16" // Account Frozen
	ACHReturnR20 ACHReturnCode = "R20" // Non-Transaction Account
	ACHReturnR29 ACHReturnCode = "R29" // Corporate Customer Advises Not Authorized
)

// FedNowReturnCode enumerates the seeded FedNow reject/return reasons (spec §6).
type FedNowReturnCode string

const (
	FedNowAC01 FedNowReturnCode = "AC01" // Incorrect account number
	FedNowAC04 FedNowReturnCode = "AC04" // Account closed
	FedNowAC06 FedNowReturnCode = "AC06" // Account blocked
	FedNowAM02 FedNowReturnCode = "AM02" // Amount exceeds limit
	FedNowAM04 FedNowReturnCode = "AM04" // Insufficient funds
	FedNowBE04 FedNowReturnCode = "BE04" // Missing/invalid creditor address
	FedNowRJCT FedNowReturnCode = "RJCT" // Generic rejection
)

// SettlementEvent is the external, bank-confirmed truth about a money movement.
// (BankAccountID, ExternalTraceID) is unique per rail; the row is append-only
// to the status machine above.
type SettlementEvent struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	TenantID        uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	BankAccountID   uuid.UUID        `json:"bank_account_id" db:"bank_account_id"`
	Rail            Rail             `json:"rail" db:"rail"`
	Direction       Direction        `json:"direction" db:"direction"`
	Amount          decimal.Decimal  `json:"amount" db:"amount"`
	Status          SettlementStatus `json:"status" db:"status"`
	ExternalTraceID string           `json:"external_trace_id" db:"external_trace_id"`
	ReturnCode      *string          `json:"return_code,omitempty" db:"return_code"`
	ReturnReason    *string          `json:"return_reason,omitempty" db:"return_reason"`
	EffectiveDate   time.Time        `json:"effective_date" db:"effective_date"`
	RawPayload      map[string]any   `json:"raw_payload,omitempty" db:"raw_payload"`
	ProviderRequestID *string        `json:"provider_request_id,omitempty" db:"provider_request_id"`
	Provider          *string        `json:"provider,omitempty" db:"provider"`
	PayeeRef          string         `json:"payee_ref,omitempty" db:"payee_ref"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}

// CanTransitionTo reports whether newStatus is a valid forward edge.
func (s *SettlementEvent) CanTransitionTo(newStatus SettlementStatus) bool {
	for _, candidate := range settlementTransitions[s.Status] {
		if candidate == newStatus {
			return true
		}
	}
	return false
}

// IsPostSettlementReturn reports whether this transition represents a
// return arriving after the money had already settled.
func (s *SettlementEvent) IsPostSettlementReturn(newStatus SettlementStatus) bool {
	return s.Status == SettlementStatusSettled && (newStatus == SettlementStatusReturned || newStatus == SettlementStatusReversed)
}
