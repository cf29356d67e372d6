package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brightpay/ledgercore/src/models"
)

// InsertPaymentInstruction creates a payment instruction, idempotent on
// (tenant_id, idempotency_key) per spec §4.G.
func (s *Store) InsertPaymentInstruction(ctx context.Context, p *models.PaymentInstruction) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO payment_instructions
			(id, tenant_id, legal_entity_id, purpose, direction, amount, currency,
			 payee_type, payee_ref, requested_settlement_date, status, idempotency_key,
			 source_type, source_id, correlation_id, metadata, rail_preference, urgency,
			 high_risk_payee, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		ON CONFLICT (tenant_id, idempotency_key) DO NOTHING`,
		p.ID, p.TenantID, p.LegalEntityID, p.Purpose, p.Direction, p.Amount, p.Currency,
		p.PayeeType, p.PayeeRef, p.RequestedSettlementDate, p.Status, p.IdempotencyKey,
		p.SourceType, p.SourceID, p.CorrelationID, p.Metadata, nullableRail(p.RailPreference), p.Urgency,
		p.HighRiskPayee, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("insert payment instruction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := s.GetPaymentInstructionByIdempotencyKey(ctx, p.TenantID, p.IdempotencyKey)
		if err != nil {
			return false, fmt.Errorf("reloading existing instruction: %w", err)
		}
		*p = *existing
		return false, nil
	}
	return true, nil
}

// TransitionPaymentInstruction moves an instruction's status, enforcing the
// valid-edge table at the storage boundary in addition to the in-memory
// guard every caller already runs.
func (s *Store) TransitionPaymentInstruction(ctx context.Context, id uuid.UUID, from, to models.InstructionStatus) error {
	allowed := false
	for _, next := range models.InstructionTransitions()[from] {
		if next == to {
			allowed = true
		}
	}
	if !allowed {
		return fmt.Errorf("instruction %s: invalid transition %s -> %s", id, from, to)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE payment_instructions SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("transition instruction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("instruction %s not in expected status %s", id, from)
	}
	return nil
}

// GetPaymentInstructionByIdempotencyKey looks up an instruction by its natural key.
func (s *Store) GetPaymentInstructionByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*models.PaymentInstruction, error) {
	row := s.pool.QueryRow(ctx, instructionSelect+` WHERE tenant_id = $1 AND idempotency_key = $2`, tenantID, key)
	return scanPaymentInstruction(row)
}

// GetPaymentInstructionByID fetches an instruction by primary key.
func (s *Store) GetPaymentInstructionByID(ctx context.Context, id uuid.UUID) (*models.PaymentInstruction, error) {
	row := s.pool.QueryRow(ctx, instructionSelect+` WHERE id = $1`, id)
	return scanPaymentInstruction(row)
}

const instructionSelect = `
	SELECT id, tenant_id, legal_entity_id, purpose, direction, amount, currency,
	       payee_type, payee_ref, requested_settlement_date, status, idempotency_key,
	       source_type, source_id, correlation_id, metadata, rail_preference, urgency,
	       high_risk_payee, created_at, updated_at
	FROM payment_instructions`

func scanPaymentInstruction(row pgx.Row) (*models.PaymentInstruction, error) {
	var p models.PaymentInstruction
	var sourceType *models.SourceType
	var sourceID *uuid.UUID
	var railPreference *models.Rail
	err := row.Scan(&p.ID, &p.TenantID, &p.LegalEntityID, &p.Purpose, &p.Direction, &p.Amount, &p.Currency,
		&p.PayeeType, &p.PayeeRef, &p.RequestedSettlementDate, &p.Status, &p.IdempotencyKey,
		&sourceType, &sourceID, &p.CorrelationID, &p.Metadata, &railPreference, &p.Urgency,
		&p.HighRiskPayee, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan payment instruction: %w", err)
	}
	if sourceType != nil {
		p.SourceType = *sourceType
	}
	if sourceID != nil {
		p.SourceID = *sourceID
	}
	if railPreference != nil {
		p.RailPreference = *railPreference
	}
	return &p, nil
}

// nullableRail converts an empty Rail (meaning "no preference") to a nil
// argument so it lands NULL instead of an empty string.
func nullableRail(r models.Rail) *models.Rail {
	if r == "" {
		return nil
	}
	return &r
}

// InsertPaymentAttempt records a rail submission, idempotent on the globally
// unique (provider, provider_request_id) pair.
func (s *Store) InsertPaymentAttempt(ctx context.Context, a *models.PaymentAttempt) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO payment_attempts
			(id, tenant_id, instruction_id, rail, provider, provider_request_id,
			 status, request_payload, retryable, attempt_number, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (provider, provider_request_id) DO NOTHING`,
		a.ID, a.TenantID, a.InstructionID, a.Rail, a.Provider, a.ProviderRequestID,
		a.Status, a.RequestPayload, a.Retryable, a.AttemptNumber, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("insert payment attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := s.GetPaymentAttemptByProviderRequestID(ctx, a.Provider, a.ProviderRequestID)
		if err != nil {
			return false, fmt.Errorf("reloading existing attempt: %w", err)
		}
		*a = *existing
		return false, nil
	}
	return true, nil
}

// GetPaymentAttemptByProviderRequestID looks up an attempt by its rail key.
func (s *Store) GetPaymentAttemptByProviderRequestID(ctx context.Context, provider, providerRequestID string) (*models.PaymentAttempt, error) {
	row := s.pool.QueryRow(ctx, attemptSelect+` WHERE provider = $1 AND provider_request_id = $2`, provider, providerRequestID)
	return scanPaymentAttempt(row)
}

// ListPaymentAttemptsForInstruction returns every submission attempt for an instruction, oldest first.
func (s *Store) ListPaymentAttemptsForInstruction(ctx context.Context, instructionID uuid.UUID) ([]*models.PaymentAttempt, error) {
	rows, err := s.pool.Query(ctx, attemptSelect+` WHERE instruction_id = $1 ORDER BY attempt_number ASC`, instructionID)
	if err != nil {
		return nil, fmt.Errorf("list payment attempts: %w", err)
	}
	defer rows.Close()
	var out []*models.PaymentAttempt
	for rows.Next() {
		a, err := scanPaymentAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListOpenAttemptsForTenant returns submitted/accepted attempts for a
// tenant, the candidate pool fallback settlement matching scores over
// when no exact (provider, provider_request_id) match exists.
func (s *Store) ListOpenAttemptsForTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.PaymentAttempt, error) {
	rows, err := s.pool.Query(ctx, attemptSelect+`
		WHERE tenant_id = $1 AND status IN ('submitted', 'accepted')
		ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list open attempts: %w", err)
	}
	defer rows.Close()
	var out []*models.PaymentAttempt
	for rows.Next() {
		a, err := scanPaymentAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const attemptSelect = `
	SELECT id, tenant_id, instruction_id, rail, provider, provider_request_id,
	       status, request_payload, retryable, attempt_number, created_at, updated_at
	FROM payment_attempts`

func scanPaymentAttempt(row pgx.Row) (*models.PaymentAttempt, error) {
	var a models.PaymentAttempt
	err := row.Scan(&a.ID, &a.TenantID, &a.InstructionID, &a.Rail, &a.Provider, &a.ProviderRequestID,
		&a.Status, &a.RequestPayload, &a.Retryable, &a.AttemptNumber, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan payment attempt: %w", err)
	}
	return &a, nil
}

// UpdatePaymentAttemptStatus updates a single attempt's status in place.
// Attempts, unlike ledger entries, are mutable status records, not
// append-only financial facts.
func (s *Store) UpdatePaymentAttemptStatus(ctx context.Context, id uuid.UUID, status models.AttemptStatus) error {
	_, err := s.pool.Exec(ctx, `UPDATE payment_attempts SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update payment attempt status: %w", err)
	}
	return nil
}
