package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brightpay/ledgercore/src/models"
)

// InsertLiabilityEvent appends a liability determination, idempotent on
// (tenant_id, idempotency_key). Escalation overrides call this with a fresh
// idempotency key of their own; they never target an existing row for
// update, per spec §4.I.
func (s *Store) InsertLiabilityEvent(ctx context.Context, e *models.LiabilityEvent) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO liability_events
			(id, tenant_id, source, source_id, error_origin, liability_party,
			 recovery_path, recovery_status, loss_amount, determination_reason,
			 evidence, idempotency_key, correlation_id, requires_manual_review, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (tenant_id, idempotency_key) DO NOTHING`,
		e.ID, e.TenantID, e.Source, e.SourceID, e.ErrorOrigin, e.LiabilityParty,
		e.RecoveryPath, e.RecoveryStatus, e.LossAmount, e.DeterminationReason,
		e.Evidence, e.IdempotencyKey, e.CorrelationID, e.RequiresManualReview, e.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert liability event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := s.GetLiabilityEventByIdempotencyKey(ctx, e.TenantID, e.IdempotencyKey)
		if err != nil {
			return false, fmt.Errorf("reloading existing liability event: %w", err)
		}
		*e = *existing
		return false, nil
	}
	return true, nil
}

// GetLiabilityEventByIdempotencyKey looks up a liability event by its natural key.
func (s *Store) GetLiabilityEventByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*models.LiabilityEvent, error) {
	row := s.pool.QueryRow(ctx, liabilitySelect+` WHERE tenant_id = $1 AND idempotency_key = $2`, tenantID, key)
	return scanLiabilityEvent(row)
}

// ListLiabilityEventsForSource returns every liability event chained to a
// source record, oldest first, so escalation logic can inspect prior history.
func (s *Store) ListLiabilityEventsForSource(ctx context.Context, source models.LiabilitySource, sourceID uuid.UUID) ([]*models.LiabilityEvent, error) {
	rows, err := s.pool.Query(ctx, liabilitySelect+` WHERE source = $1 AND source_id = $2 ORDER BY created_at ASC`, source, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list liability events: %w", err)
	}
	defer rows.Close()
	var out []*models.LiabilityEvent
	for rows.Next() {
		e, err := scanLiabilityEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListLiabilityEventsByPayeeSince returns liability events recorded against a
// given payee reference since a cutoff, the window the R01-repeat escalation
// (spec §4.I) checks before deciding whether to override the seeded recovery
// path. payee_ref is read out of the evidence blob since LiabilityEvent
// itself only carries (source, source_id), not the underlying payee.
func (s *Store) ListLiabilityEventsByPayeeSince(ctx context.Context, tenantID uuid.UUID, payeeRef string, since time.Time) ([]*models.LiabilityEvent, error) {
	rows, err := s.pool.Query(ctx, liabilitySelect+`
		WHERE tenant_id = $1 AND evidence->>'payee_ref' = $2 AND created_at >= $3
		ORDER BY created_at ASC`, tenantID, payeeRef, since)
	if err != nil {
		return nil, fmt.Errorf("list liability events by payee: %w", err)
	}
	defer rows.Close()
	var out []*models.LiabilityEvent
	for rows.Next() {
		e, err := scanLiabilityEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const liabilitySelect = `
	SELECT id, tenant_id, source, source_id, error_origin, liability_party,
	       recovery_path, recovery_status, loss_amount, determination_reason,
	       evidence, idempotency_key, correlation_id, requires_manual_review, created_at
	FROM liability_events`

func scanLiabilityEvent(row pgx.Row) (*models.LiabilityEvent, error) {
	var e models.LiabilityEvent
	err := row.Scan(&e.ID, &e.TenantID, &e.Source, &e.SourceID, &e.ErrorOrigin, &e.LiabilityParty,
		&e.RecoveryPath, &e.RecoveryStatus, &e.LossAmount, &e.DeterminationReason,
		&e.Evidence, &e.IdempotencyKey, &e.CorrelationID, &e.RequiresManualReview, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan liability event: %w", err)
	}
	return &e, nil
}

// GetReturnCodeReference looks up the seeded default classification for a (rail, code) pair.
func (s *Store) GetReturnCodeReference(ctx context.Context, rail models.Rail, code string) (*models.ReturnCodeReference, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT rail, code, default_error_origin, default_party, is_recoverable, description
		FROM return_code_reference WHERE rail = $1 AND code = $2`, rail, code)
	var r models.ReturnCodeReference
	err := row.Scan(&r.Rail, &r.Code, &r.DefaultErrorOrigin, &r.DefaultParty, &r.IsRecoverable, &r.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan return code reference: %w", err)
	}
	return &r, nil
}
