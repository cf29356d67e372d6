package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/brightpay/ledgercore/src/models"
)

// InsertReservation creates a reservation within the given transaction. The
// caller is responsible for holding the per-account advisory lock and for
// checking available balance before calling this; the unique index on
// (tenant_id, source_ref) is the idempotency backstop for retried requests.
func InsertReservation(ctx context.Context, tx pgx.Tx, r *models.Reservation) (bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO reservations (id, tenant_id, account_id, reserve_type, amount, status, source_ref, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (tenant_id, source_ref) DO NOTHING`,
		r.ID, r.TenantID, r.AccountID, r.ReserveType, r.Amount, r.Status, r.SourceRef, r.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert reservation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ActiveReservationSum returns the sum of all active reservations against an
// account, the quantity subtracted from the posted balance to compute
// available (spec §4.C).
func ActiveReservationSum(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	row := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM reservations
		WHERE account_id = $1 AND status = 'active'`, accountID)
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum active reservations: %w", err)
	}
	return sum, nil
}

// GetReservationBySourceRef looks up a reservation by its idempotency key.
func (s *Store) GetReservationBySourceRef(ctx context.Context, tenantID uuid.UUID, sourceRef string) (*models.Reservation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, account_id, reserve_type, amount, status, source_ref, created_at, released_at
		FROM reservations WHERE tenant_id = $1 AND source_ref = $2`, tenantID, sourceRef)
	return scanReservation(row)
}

// GetReservationByID fetches a reservation by primary key.
func (s *Store) GetReservationByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, account_id, reserve_type, amount, status, source_ref, created_at, released_at
		FROM reservations WHERE id = $1`, id)
	return scanReservation(row)
}

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var r models.Reservation
	err := row.Scan(&r.ID, &r.TenantID, &r.AccountID, &r.ReserveType, &r.Amount, &r.Status, &r.SourceRef, &r.CreatedAt, &r.ReleasedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan reservation: %w", err)
	}
	return &r, nil
}

// TransitionReservation moves a reservation from active to released or
// consumed. The WHERE clause enforces the one-way lifecycle at the storage
// boundary: a reservation already in a terminal state cannot be re-targeted.
func TransitionReservation(ctx context.Context, tx pgx.Tx, id uuid.UUID, newStatus models.ReservationStatus) error {
	tag, err := tx.Exec(ctx, `
		UPDATE reservations SET status = $1, released_at = now()
		WHERE id = $2 AND status = 'active'`, newStatus, id)
	if err != nil {
		return fmt.Errorf("transition reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrReservationTerminal
	}
	return nil
}
