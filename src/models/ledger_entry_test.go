package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestLedgerEntryValidate(t *testing.T) {
	debit := uuid.New()
	credit := uuid.New()

	tests := []struct {
		name      string
		entry     LedgerEntry
		wantErrIs error // checked with errors.Is when set
		wantErr   bool  // checked as err != nil when wantErrIs is nil
	}{
		{
			name: "valid entry",
			entry: LedgerEntry{
				DebitAccount: debit, CreditAccount: credit,
				Amount: decimal.NewFromInt(100), IdempotencyKey: "k1",
			},
		},
		{
			name: "zero amount",
			entry: LedgerEntry{
				DebitAccount: debit, CreditAccount: credit,
				Amount: decimal.Zero, IdempotencyKey: "k2",
			},
			wantErrIs: ErrNonPositiveAmount,
		},
		{
			name: "negative amount",
			entry: LedgerEntry{
				DebitAccount: debit, CreditAccount: credit,
				Amount: decimal.NewFromInt(-5), IdempotencyKey: "k3",
			},
			wantErrIs: ErrNonPositiveAmount,
		},
		{
			name: "self transfer",
			entry: LedgerEntry{
				DebitAccount: debit, CreditAccount: debit,
				Amount: decimal.NewFromInt(100), IdempotencyKey: "k4",
			},
			wantErrIs: ErrSelfTransfer,
		},
		{
			name: "missing idempotency key",
			entry: LedgerEntry{
				DebitAccount: debit, CreditAccount: credit,
				Amount: decimal.NewFromInt(100),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErrIs != nil {
				if !errors.Is(err, tt.wantErrIs) {
					t.Errorf("Validate() = %v, want %v", err, tt.wantErrIs)
				}
				return
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLedgerEntryBuildReversal(t *testing.T) {
	debit := uuid.New()
	credit := uuid.New()
	original := &LedgerEntry{
		ID:             uuid.New(),
		DebitAccount:   debit,
		CreditAccount:  credit,
		Amount:         decimal.NewFromInt(500),
		EntryType:      EntryTypeDisbursement,
		SourceType:     SourceTypePaymentInstruction,
		IdempotencyKey: "original-key",
	}

	reversal := original.BuildReversal("reversal-key", "returned by bank")

	if reversal.DebitAccount != credit || reversal.CreditAccount != debit {
		t.Error("BuildReversal should swap debit and credit accounts")
	}
	if !reversal.Amount.Equal(original.Amount) {
		t.Errorf("BuildReversal amount = %s, want %s", reversal.Amount, original.Amount)
	}
	if !reversal.IsReversal {
		t.Error("BuildReversal should set IsReversal = true")
	}
	if reversal.ReversalOf == nil || *reversal.ReversalOf != original.ID {
		t.Error("BuildReversal should point ReversalOf at the original entry")
	}
	if reversal.EntryType != EntryTypeReversal {
		t.Errorf("BuildReversal entry type = %s, want %s", reversal.EntryType, EntryTypeReversal)
	}
}

func TestLedgerEntryIsReversed(t *testing.T) {
	e := &LedgerEntry{}
	if e.IsReversed() {
		t.Error("fresh entry should not be reversed")
	}
	id := uuid.New()
	e.ReversedBy = &id
	if !e.IsReversed() {
		t.Error("entry with ReversedBy set should report reversed")
	}
}
