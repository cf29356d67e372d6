// Package reservation holds funds against a ledger account without moving
// money. A reservation reduces an account's available balance the instant
// it is created and is released back or consumed by a later ledger entry;
// it never itself posts to the ledger (spec §4.C).
package reservation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightpay/ledgercore/src/eventlog"
	"github.com/brightpay/ledgercore/src/ledger"
	"github.com/brightpay/ledgercore/src/metrics"
	"github.com/brightpay/ledgercore/src/models"
	"github.com/brightpay/ledgercore/src/storage"
)

// Manager creates, releases, and consumes reservations.
type Manager struct {
	store   *storage.Store
	ledger  *ledger.Engine
	events  *eventlog.Log
	metrics *metrics.Metrics
	log     *zap.Logger
}

// New constructs a reservation manager. m may be nil.
func New(store *storage.Store, ledgerEngine *ledger.Engine, events *eventlog.Log, m *metrics.Metrics, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, ledger: ledgerEngine, events: events, metrics: m, log: logger}
}

func lockKeyForAccount(id uuid.UUID) int64 {
	return storage.LockKey(id.String())
}

// Create holds amount against account, all-or-nothing: if the account's
// available balance (posted minus already-active reservations) is less
// than amount, no reservation is created and ErrInsufficientAvailable is
// returned. The whole check-then-insert runs under a per-account
// transaction-scoped advisory lock so concurrent callers cannot both see
// the same available balance and both succeed.
func (m *Manager) Create(ctx context.Context, tenantID, accountID uuid.UUID, reserveType models.ReserveType, amount decimal.Decimal, sourceRef string, correlationID uuid.UUID) (*models.Reservation, bool, error) {
	tx, err := m.store.Pool().BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, false, fmt.Errorf("reservation: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKeyForAccount(accountID)); err != nil {
		return nil, false, fmt.Errorf("reservation: lock account %s: %w", accountID, err)
	}

	var existing models.Reservation
	err = tx.QueryRow(ctx, `
		SELECT id, tenant_id, account_id, reserve_type, amount, status, source_ref, created_at, released_at
		FROM reservations WHERE tenant_id = $1 AND source_ref = $2`, tenantID, sourceRef,
	).Scan(&existing.ID, &existing.TenantID, &existing.AccountID, &existing.ReserveType,
		&existing.Amount, &existing.Status, &existing.SourceRef, &existing.CreatedAt, &existing.ReleasedAt)
	if err == nil {
		return &existing, false, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("reservation: idempotency check: %w", err)
	}

	credits, debits, err := m.store.SumPostedForAccount(ctx, accountID)
	if err != nil {
		return nil, false, fmt.Errorf("reservation: sum posted: %w", err)
	}
	creditSum, _ := decimal.NewFromString(credits)
	debitSum, _ := decimal.NewFromString(debits)
	posted := creditSum.Sub(debitSum)

	activeSum, err := storage.ActiveReservationSum(ctx, tx, accountID)
	if err != nil {
		return nil, false, fmt.Errorf("reservation: sum active: %w", err)
	}

	available := posted.Sub(activeSum)
	if available.LessThan(amount) {
		m.metrics.ObserveReservationDenial("insufficient_available")
		return nil, false, models.ErrInsufficientAvailable
	}

	r := models.NewReservation(tenantID, accountID, reserveType, amount, sourceRef)
	if _, err := storage.InsertReservation(ctx, tx, r); err != nil {
		return nil, false, fmt.Errorf("reservation: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("reservation: commit: %w", err)
	}

	ev := models.NewDomainEvent(models.EventReservationCreated, models.CategoryReservation, tenantID, correlationID, map[string]any{
		"reservation_id": r.ID.String(),
		"account_id":     accountID.String(),
		"reserve_type":   string(reserveType),
		"amount":         amount.String(),
	})
	if err := m.events.Append(ctx, ev); err != nil {
		m.log.Error("reservation: failed to append domain event", zap.Error(err))
	}

	return r, true, nil
}

// Release returns a reservation's hold without any ledger movement —
// used when a batch is canceled or a reservation's intended spend never
// materializes.
func (m *Manager) Release(ctx context.Context, tenantID, reservationID, correlationID uuid.UUID) error {
	return m.transition(ctx, tenantID, reservationID, correlationID, models.ReservationStatusReleased, models.EventReservationReleased)
}

// Consume marks a reservation as spent. The facade consumes a batch's
// commit hold once every instruction in the batch has been submitted.
func (m *Manager) Consume(ctx context.Context, tenantID, reservationID, correlationID uuid.UUID) error {
	return m.transition(ctx, tenantID, reservationID, correlationID, models.ReservationStatusConsumed, models.EventReservationConsumed)
}

func (m *Manager) transition(ctx context.Context, tenantID, reservationID, correlationID uuid.UUID, newStatus models.ReservationStatus, eventType models.EventType) error {
	tx, err := m.store.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("reservation: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := storage.TransitionReservation(ctx, tx, reservationID, newStatus); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("reservation: commit: %w", err)
	}

	ev := models.NewDomainEvent(eventType, models.CategoryReservation, tenantID, correlationID, map[string]any{
		"reservation_id": reservationID.String(),
	})
	if err := m.events.Append(ctx, ev); err != nil {
		m.log.Error("reservation: failed to append domain event", zap.Error(err))
	}
	return nil
}

// ActiveSum returns the total of all active reservations held against an account.
func (m *Manager) ActiveSum(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	tx, err := m.store.Pool().Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reservation: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)
	return storage.ActiveReservationSum(ctx, tx, accountID)
}
