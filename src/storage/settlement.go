package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brightpay/ledgercore/src/models"
)

// InsertSettlementEvent ingests a raw settlement record, idempotent on
// (bank_account_id, external_trace_id) per spec §4.H.
func (s *Store) InsertSettlementEvent(ctx context.Context, e *models.SettlementEvent) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO settlement_events
			(id, tenant_id, bank_account_id, rail, direction, amount, status,
			 external_trace_id, return_code, return_reason, effective_date, raw_payload,
			 provider_request_id, provider, payee_ref, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (bank_account_id, external_trace_id) DO NOTHING`,
		e.ID, e.TenantID, e.BankAccountID, e.Rail, e.Direction, e.Amount, e.Status,
		e.ExternalTraceID, e.ReturnCode, e.ReturnReason, e.EffectiveDate, e.RawPayload,
		e.ProviderRequestID, e.Provider, e.PayeeRef, e.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert settlement event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := s.GetSettlementEventByTraceID(ctx, e.BankAccountID, e.ExternalTraceID)
		if err != nil {
			return false, fmt.Errorf("reloading existing settlement event: %w", err)
		}
		*e = *existing
		return false, nil
	}
	return true, nil
}

// TransitionSettlementEvent moves a settlement event's status.
func (s *Store) TransitionSettlementEvent(ctx context.Context, id uuid.UUID, from, to models.SettlementStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE settlement_events SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("transition settlement event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("settlement event %s not in expected status %s", id, from)
	}
	return nil
}

// GetSettlementEventByTraceID looks up a settlement event by its natural key.
func (s *Store) GetSettlementEventByTraceID(ctx context.Context, bankAccountID uuid.UUID, traceID string) (*models.SettlementEvent, error) {
	row := s.pool.QueryRow(ctx, settlementSelect+` WHERE bank_account_id = $1 AND external_trace_id = $2`, bankAccountID, traceID)
	return scanSettlementEvent(row)
}

// GetSettlementEventByProviderRequestID is the primary match path: attempts
// carry (provider, provider_request_id), and a settlement event that echoes
// the same pair is an exact match, no fallback scoring needed.
func (s *Store) GetSettlementEventByProviderRequestID(ctx context.Context, provider, providerRequestID string) (*models.SettlementEvent, error) {
	row := s.pool.QueryRow(ctx, settlementSelect+` WHERE provider = $1 AND provider_request_id = $2`, provider, providerRequestID)
	return scanSettlementEvent(row)
}

// ListUnmatchedSettlementEvents returns a tenant's settlement events whose
// status is pending. The reconciler's fallback scoring runs over open
// payment attempts (ListOpenAttemptsForTenant), not over this list.
func (s *Store) ListUnmatchedSettlementEvents(ctx context.Context, tenantID uuid.UUID) ([]*models.SettlementEvent, error) {
	rows, err := s.pool.Query(ctx, settlementSelect+` WHERE tenant_id = $1 AND status = 'pending'`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list unmatched settlement events: %w", err)
	}
	defer rows.Close()
	var out []*models.SettlementEvent
	for rows.Next() {
		e, err := scanSettlementEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const settlementSelect = `
	SELECT id, tenant_id, bank_account_id, rail, direction, amount, status,
	       external_trace_id, return_code, return_reason, effective_date, raw_payload,
	       provider_request_id, provider, payee_ref, created_at
	FROM settlement_events`

func scanSettlementEvent(row pgx.Row) (*models.SettlementEvent, error) {
	var e models.SettlementEvent
	err := row.Scan(&e.ID, &e.TenantID, &e.BankAccountID, &e.Rail, &e.Direction, &e.Amount, &e.Status,
		&e.ExternalTraceID, &e.ReturnCode, &e.ReturnReason, &e.EffectiveDate, &e.RawPayload,
		&e.ProviderRequestID, &e.Provider, &e.PayeeRef, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan settlement event: %w", err)
	}
	return &e, nil
}

// GetLatestSettlementLinkForInstruction returns the most recently created
// settlement link for an instruction, i.e. the ledger entry a post-settlement
// return needs to reverse.
func (s *Store) GetLatestSettlementLinkForInstruction(ctx context.Context, instructionID uuid.UUID) (*models.SettlementLink, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, settlement_event_id, ledger_entry_id, instruction_id, created_at
		FROM settlement_links
		WHERE instruction_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, instructionID)

	var l models.SettlementLink
	err := row.Scan(&l.ID, &l.TenantID, &l.SettlementEventID, &l.LedgerEntryID, &l.InstructionID, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan settlement link: %w", err)
	}
	return &l, nil
}

// InsertSettlementLink records the weak reference from a settlement event to
// the ledger entry it produced.
func (s *Store) InsertSettlementLink(ctx context.Context, l *models.SettlementLink) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settlement_links (id, tenant_id, settlement_event_id, ledger_entry_id, instruction_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		l.ID, l.TenantID, l.SettlementEventID, l.LedgerEntryID, l.InstructionID, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert settlement link: %w", err)
	}
	return nil
}
