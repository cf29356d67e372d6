package fundinggate

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/brightpay/ledgercore/src/models"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name        string
		input       Input
		mode        Mode
		wantOutcome models.GateOutcome
		wantReasons int
	}{
		{
			name: "sufficient funds passes under strict",
			input: Input{
				RequiredAmount:  decimal.NewFromInt(1000),
				AvailableAmount: decimal.NewFromInt(1000),
			},
			mode:        ModeStrict,
			wantOutcome: models.GateOutcomePass,
		},
		{
			name: "insufficient funds hard-fails under strict",
			input: Input{
				RequiredAmount:  decimal.NewFromInt(1000),
				AvailableAmount: decimal.NewFromInt(500),
			},
			mode:        ModeStrict,
			wantOutcome: models.GateOutcomeHardFail,
			wantReasons: 1,
		},
		{
			name: "insufficient funds soft-fails under hybrid",
			input: Input{
				RequiredAmount:  decimal.NewFromInt(1000),
				AvailableAmount: decimal.NewFromInt(500),
			},
			mode:        ModeHybrid,
			wantOutcome: models.GateOutcomeSoftFail,
			wantReasons: 1,
		},
		{
			name: "nsf return alone hard-fails under strict even with enough funds",
			input: Input{
				RequiredAmount:  decimal.NewFromInt(1000),
				AvailableAmount: decimal.NewFromInt(2000),
				NSFReturn:       true,
			},
			mode:        ModeStrict,
			wantOutcome: models.GateOutcomeHardFail,
			wantReasons: 1,
		},
		{
			name: "multiple reasons accumulate",
			input: Input{
				RequiredAmount:  decimal.NewFromInt(1000),
				AvailableAmount: decimal.NewFromInt(500),
				NSFReturn:       true,
				RiskyBankChange: true,
			},
			mode:        ModeStrict,
			wantOutcome: models.GateOutcomeHardFail,
			wantReasons: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, reasons := decide(tt.input, tt.mode)
			if outcome != tt.wantOutcome {
				t.Errorf("decide() outcome = %s, want %s", outcome, tt.wantOutcome)
			}
			if len(reasons) != tt.wantReasons {
				t.Errorf("decide() reasons = %v (len %d), want len %d", reasons, len(reasons), tt.wantReasons)
			}
		})
	}
}

func TestPayGateAlwaysStrict(t *testing.T) {
	in := Input{
		RequiredAmount:  decimal.NewFromInt(1000),
		AvailableAmount: decimal.NewFromInt(500),
	}
	// Pay Gate ignores hybrid mode entirely by always calling decide with ModeStrict.
	outcome, _ := decide(in, ModeStrict)
	if outcome != models.GateOutcomeHardFail {
		t.Errorf("pay gate outcome = %s, want hard_fail regardless of tenant commit-gate mode", outcome)
	}
}
