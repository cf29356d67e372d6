package reconciler

import (
	"context"
	"time"

	"github.com/brightpay/ledgercore/src/models"
	"github.com/brightpay/ledgercore/src/storage"
)

// Scoring weights for fallback settlement-to-attempt matching, decided as
// the resolution of this module's Open Question on match scoring: amount
// match is worth the most, date proximity decays linearly over the +/-1
// day window, direction is a hard filter rather than scored (a credit can
// never match a debit attempt), and payee match contributes the remainder.
const (
	scoreAmountExact  = 100
	scoreDateMax      = 40
	scorePayeeMatch   = 40
	minMatchScore     = 60
	dateWindow        = 24 * time.Hour
)

// candidate pairs a payment attempt with the score it earned against a
// given settlement event.
type candidate struct {
	attempt *models.PaymentAttempt
	score   int
}

// scoreMatch computes one attempt's candidacy score against an event.
// Direction mismatch is a hard filter (returns 0 immediately) rather than
// a deduction, since a credit settlement can never genuinely be the same
// movement as a debit attempt.
func scoreMatch(event *models.SettlementEvent, instruction *models.PaymentInstruction, attempt *models.PaymentAttempt) int {
	if instruction == nil {
		return 0
	}
	if instruction.Direction != event.Direction {
		return 0
	}

	score := 0
	if instruction.Amount.Equal(event.Amount) {
		score += scoreAmountExact
	}

	score += dateProximityScore(instruction.RequestedSettlementDate, event.EffectiveDate)

	if instruction.PayeeRef != "" && instruction.PayeeRef == event.PayeeRef {
		score += scorePayeeMatch
	}

	return score
}

// dateProximityScore decays linearly from scoreDateMax at zero distance to
// 0 at exactly one day apart; anything further apart scores 0.
func dateProximityScore(expected, actual time.Time) int {
	delta := expected.Sub(actual)
	if delta < 0 {
		delta = -delta
	}
	if delta > dateWindow {
		return 0
	}
	fraction := 1.0 - float64(delta)/float64(dateWindow)
	return int(float64(scoreDateMax) * fraction)
}

// resolveInstructionForAttempt is a small helper so matching can load the
// instruction an attempt belongs to without every caller repeating the
// storage round trip.
func resolveInstructionForAttempt(ctx context.Context, store *storage.Store, attempt *models.PaymentAttempt) (*models.PaymentInstruction, error) {
	return store.GetPaymentInstructionByID(ctx, attempt.InstructionID)
}
