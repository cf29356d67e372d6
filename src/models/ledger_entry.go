package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryType distinguishes the business reason a ledger entry was posted.
type LedgerEntryType string

const (
	EntryTypeFunding       LedgerEntryType = "funding"
	EntryTypeReservationConsumption LedgerEntryType = "reservation_consumption"
	EntryTypeDisbursement  LedgerEntryType = "disbursement"
	EntryTypeSettlement    LedgerEntryType = "settlement"
	EntryTypeFee           LedgerEntryType = "fee"
	EntryTypeReversal      LedgerEntryType = "reversal"
	EntryTypeAdjustment    LedgerEntryType = "adjustment"
)

// SourceType names the originating entity of a ledger entry for traceability.
type SourceType string

const (
	SourceTypeFundingRequest     SourceType = "funding_request"
	SourceTypePaymentInstruction SourceType = "payment_instruction"
	SourceTypeSettlementEvent    SourceType = "settlement_event"
	SourceTypeManualAdjustment   SourceType = "manual_adjustment"
)

var (
	// ErrNonPositiveAmount is returned when an entry amount is not strictly positive.
	ErrNonPositiveAmount = errors.New("amount must be strictly positive")
	// ErrSelfTransfer is returned when debit and credit accounts are the same.
	ErrSelfTransfer = errors.New("debit and credit accounts must differ")
	// ErrAlreadyReversed is returned by reverse_entry when the original already has a reversal.
	ErrAlreadyReversed = errors.New("entry already reversed")
)

// LedgerEntry is the append-only, double-entry core record. Rows are never
// updated or deleted once inserted; at most one reversal may point at an entry.
type LedgerEntry struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	TenantID       uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	DebitAccount   uuid.UUID       `json:"debit_account" db:"debit_account"`
	CreditAccount  uuid.UUID       `json:"credit_account" db:"credit_account"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	EntryType      LedgerEntryType `json:"entry_type" db:"entry_type"`
	SourceType     SourceType      `json:"source_type" db:"source_type"`
	SourceID       uuid.UUID       `json:"source_id" db:"source_id"`
	CorrelationID  uuid.UUID       `json:"correlation_id" db:"correlation_id"`
	IdempotencyKey string          `json:"idempotency_key" db:"idempotency_key"`
	Metadata       map[string]any  `json:"metadata,omitempty" db:"metadata"`
	PostedAt       time.Time       `json:"posted_at" db:"posted_at"`
	ReversedBy     *uuid.UUID      `json:"reversed_by,omitempty" db:"reversed_by"`
	IsReversal     bool            `json:"is_reversal" db:"is_reversal"`
	ReversalOf     *uuid.UUID      `json:"reversal_of,omitempty" db:"reversal_of"`
}

// Validate enforces the entry-level invariants from spec §3/§8: positive
// amount, distinct accounts.
func (e *LedgerEntry) Validate() error {
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrNonPositiveAmount
	}
	if e.DebitAccount == e.CreditAccount {
		return ErrSelfTransfer
	}
	if e.IdempotencyKey == "" {
		return errors.New("idempotency key is required")
	}
	return nil
}

// IsReversed reports whether this entry already has a reversal pointed at it.
func (e *LedgerEntry) IsReversed() bool {
	return e.ReversedBy != nil
}

// BuildReversal constructs the reversal row for an original entry: legs
// swapped, same amount, entry_type=reversal, is_reversal=true.
func (e *LedgerEntry) BuildReversal(idempotencyKey, reason string) *LedgerEntry {
	meta := map[string]any{"reason": reason, "reversal_of": e.ID.String()}
	return &LedgerEntry{
		ID:             uuid.New(),
		TenantID:       e.TenantID,
		DebitAccount:   e.CreditAccount,
		CreditAccount:  e.DebitAccount,
		Amount:         e.Amount,
		EntryType:      EntryTypeReversal,
		SourceType:     e.SourceType,
		SourceID:       e.SourceID,
		CorrelationID:  e.CorrelationID,
		IdempotencyKey: idempotencyKey,
		Metadata:       meta,
		IsReversal:     true,
		ReversalOf:     &e.ID,
	}
}
