package reconciler

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightpay/ledgercore/src/models"
)

func TestScoreMatch(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		event       *models.SettlementEvent
		instruction *models.PaymentInstruction
		wantAtLeast int
		wantExactly int
	}{
		{
			name: "exact amount, date, and payee scores at the ceiling",
			event: &models.SettlementEvent{
				Direction:     models.DirectionCredit,
				Amount:        decimal.NewFromInt(500),
				EffectiveDate: now,
				PayeeRef:      "employee-001",
			},
			instruction: &models.PaymentInstruction{
				Direction:               models.DirectionCredit,
				Amount:                  decimal.NewFromInt(500),
				RequestedSettlementDate: now,
				PayeeRef:                "employee-001",
			},
			wantExactly: scoreAmountExact + scoreDateMax + scorePayeeMatch,
		},
		{
			name: "direction mismatch is a hard filter regardless of other matches",
			event: &models.SettlementEvent{
				Direction:     models.DirectionDebit,
				Amount:        decimal.NewFromInt(500),
				EffectiveDate: now,
				PayeeRef:      "employee-001",
			},
			instruction: &models.PaymentInstruction{
				Direction:               models.DirectionCredit,
				Amount:                  decimal.NewFromInt(500),
				RequestedSettlementDate: now,
				PayeeRef:                "employee-001",
			},
			wantExactly: 0,
		},
		{
			name: "nil instruction scores zero",
			event: &models.SettlementEvent{
				Direction: models.DirectionCredit,
				Amount:    decimal.NewFromInt(500),
			},
			instruction: nil,
			wantExactly: 0,
		},
		{
			name: "amount mismatch drops the amount component but keeps date and payee",
			event: &models.SettlementEvent{
				Direction:     models.DirectionCredit,
				Amount:        decimal.NewFromInt(500),
				EffectiveDate: now,
				PayeeRef:      "employee-001",
			},
			instruction: &models.PaymentInstruction{
				Direction:               models.DirectionCredit,
				Amount:                  decimal.NewFromInt(499),
				RequestedSettlementDate: now,
				PayeeRef:                "employee-001",
			},
			wantExactly: scoreDateMax + scorePayeeMatch,
		},
		{
			name: "date more than a day off contributes nothing",
			event: &models.SettlementEvent{
				Direction:     models.DirectionCredit,
				Amount:        decimal.NewFromInt(500),
				EffectiveDate: now.Add(-72 * time.Hour),
				PayeeRef:      "employee-001",
			},
			instruction: &models.PaymentInstruction{
				Direction:               models.DirectionCredit,
				Amount:                  decimal.NewFromInt(500),
				RequestedSettlementDate: now,
				PayeeRef:                "employee-001",
			},
			wantExactly: scoreAmountExact + scorePayeeMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreMatch(tt.event, tt.instruction, nil)
			if got != tt.wantExactly {
				t.Errorf("scoreMatch() = %d, want %d", got, tt.wantExactly)
			}
		})
	}
}

func TestDateProximityScore(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		expected time.Time
		actual   time.Time
		want     int
	}{
		{"exact match scores the ceiling", now, now, scoreDateMax},
		{"twelve hours apart scores half", now, now.Add(12 * time.Hour), scoreDateMax / 2},
		{"exactly one day apart scores zero", now, now.Add(dateWindow), 0},
		{"more than one day apart scores zero", now, now.Add(48 * time.Hour), 0},
		{"direction of the gap doesn't matter", now, now.Add(-12 * time.Hour), scoreDateMax / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dateProximityScore(tt.expected, tt.actual)
			if got != tt.want {
				t.Errorf("dateProximityScore() = %d, want %d", got, tt.want)
			}
		})
	}
}
