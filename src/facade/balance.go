package facade

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/brightpay/ledgercore/src/ledger"
)

// GetBalance returns an account's posted, reserved, and available balance,
// computed fresh from the ledger and the reservation manager's active sum
// (spec §4.C: "Balance is always derived, never cached").
func (f *Facade) GetBalance(ctx context.Context, accountID uuid.UUID) (*ledger.Balance, error) {
	reserved, err := f.reservations.ActiveSum(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("facade: sum active reservations: %w", err)
	}
	balance, err := f.ledger.GetBalance(ctx, accountID, reserved)
	if err != nil {
		return nil, fmt.Errorf("facade: compute balance: %w", err)
	}
	return balance, nil
}
