package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brightpay/ledgercore/src/models"
)

// InsertFundingRequest creates a client funding intent, idempotent on
// (tenant_id, idempotency_key).
func (s *Store) InsertFundingRequest(ctx context.Context, f *models.FundingRequest) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO funding_requests
			(id, tenant_id, legal_entity_id, funding_model, rail, amount,
			 requested_settlement_date, status, idempotency_key, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (tenant_id, idempotency_key) DO NOTHING`,
		f.ID, f.TenantID, f.LegalEntityID, f.FundingModel, f.Rail, f.Amount,
		f.RequestedSettlementDate, f.Status, f.IdempotencyKey, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("insert funding request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := s.GetFundingRequestByIdempotencyKey(ctx, f.TenantID, f.IdempotencyKey)
		if err != nil {
			return false, fmt.Errorf("reloading existing funding request: %w", err)
		}
		*f = *existing
		return false, nil
	}
	return true, nil
}

// TransitionFundingRequest moves a funding request's status.
func (s *Store) TransitionFundingRequest(ctx context.Context, id uuid.UUID, from, to models.FundingRequestStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE funding_requests SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("transition funding request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("funding request %s not in expected status %s", id, from)
	}
	return nil
}

// GetFundingRequestByIdempotencyKey looks up a funding request by its natural key.
func (s *Store) GetFundingRequestByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*models.FundingRequest, error) {
	row := s.pool.QueryRow(ctx, fundingRequestSelect+` WHERE tenant_id = $1 AND idempotency_key = $2`, tenantID, key)
	return scanFundingRequest(row)
}

// GetFundingRequestByID fetches a funding request by primary key.
func (s *Store) GetFundingRequestByID(ctx context.Context, id uuid.UUID) (*models.FundingRequest, error) {
	row := s.pool.QueryRow(ctx, fundingRequestSelect+` WHERE id = $1`, id)
	return scanFundingRequest(row)
}

const fundingRequestSelect = `
	SELECT id, tenant_id, legal_entity_id, funding_model, rail, amount,
	       requested_settlement_date, status, idempotency_key, created_at, updated_at
	FROM funding_requests`

func scanFundingRequest(row pgx.Row) (*models.FundingRequest, error) {
	var f models.FundingRequest
	err := row.Scan(&f.ID, &f.TenantID, &f.LegalEntityID, &f.FundingModel, &f.Rail, &f.Amount,
		&f.RequestedSettlementDate, &f.Status, &f.IdempotencyKey, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan funding request: %w", err)
	}
	return &f, nil
}

// InsertFundingGateEvaluation appends an immutable gate decision, idempotent
// on (tenant_id, idempotency_key) so a retried evaluation of the same batch
// returns the original verdict rather than re-deciding it.
func (s *Store) InsertFundingGateEvaluation(ctx context.Context, g *models.FundingGateEvaluation) (bool, error) {
	reasons := make([]string, len(g.Reasons))
	for i, r := range g.Reasons {
		reasons[i] = string(r)
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO funding_gate_evaluations
			(id, tenant_id, gate_type, batch_ref, outcome, required_amount,
			 available_amount, reasons, idempotency_key, correlation_id, evaluated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (tenant_id, idempotency_key) DO NOTHING`,
		g.ID, g.TenantID, g.GateType, g.BatchRef, g.Outcome, g.RequiredAmount,
		g.AvailableAmount, reasons, g.IdempotencyKey, g.CorrelationID, g.EvaluatedAt)
	if err != nil {
		return false, fmt.Errorf("insert gate evaluation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := s.GetFundingGateEvaluation(ctx, g.TenantID, g.IdempotencyKey)
		if err != nil {
			return false, fmt.Errorf("reloading existing gate evaluation: %w", err)
		}
		*g = *existing
		return false, nil
	}
	return true, nil
}

// GetFundingGateEvaluation looks up a prior gate decision by its idempotency key.
func (s *Store) GetFundingGateEvaluation(ctx context.Context, tenantID uuid.UUID, key string) (*models.FundingGateEvaluation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, gate_type, batch_ref, outcome, required_amount,
		       available_amount, reasons, idempotency_key, correlation_id, evaluated_at
		FROM funding_gate_evaluations WHERE tenant_id = $1 AND idempotency_key = $2`, tenantID, key)
	var g models.FundingGateEvaluation
	var reasons []string
	err := row.Scan(&g.ID, &g.TenantID, &g.GateType, &g.BatchRef, &g.Outcome, &g.RequiredAmount,
		&g.AvailableAmount, &reasons, &g.IdempotencyKey, &g.CorrelationID, &g.EvaluatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan gate evaluation: %w", err)
	}
	g.Reasons = make([]models.GateReason, len(reasons))
	for i, r := range reasons {
		g.Reasons[i] = models.GateReason(r)
	}
	return &g, nil
}
