package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brightpay/ledgercore/src/models"
)

// InsertLedgerEntry appends a ledger entry. It is idempotent on
// (tenant_id, idempotency_key): a second call with the same key returns the
// row already on disk and is_new=false, so callers never double-post a
// retried request.
func (s *Store) InsertLedgerEntry(ctx context.Context, e *models.LedgerEntry) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_entries
			(id, tenant_id, debit_account, credit_account, amount, entry_type,
			 source_type, source_id, correlation_id, idempotency_key, metadata,
			 posted_at, is_reversal, reversal_of)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),$12,$13)
		ON CONFLICT (tenant_id, idempotency_key) DO NOTHING`,
		e.ID, e.TenantID, e.DebitAccount, e.CreditAccount, e.Amount, e.EntryType,
		e.SourceType, e.SourceID, e.CorrelationID, e.IdempotencyKey, e.Metadata,
		e.IsReversal, e.ReversalOf,
	)
	if err != nil {
		return false, fmt.Errorf("insert ledger entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, err := s.GetLedgerEntryByIdempotencyKey(ctx, e.TenantID, e.IdempotencyKey)
		if err != nil {
			return false, fmt.Errorf("reloading existing ledger entry: %w", err)
		}
		*e = *existing
		return false, nil
	}
	return true, nil
}

// GetLedgerEntryByIdempotencyKey looks up a previously posted entry.
func (s *Store) GetLedgerEntryByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*models.LedgerEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, debit_account, credit_account, amount, entry_type,
		       source_type, source_id, correlation_id, idempotency_key, metadata,
		       posted_at, reversed_by, is_reversal, reversal_of
		FROM ledger_entries WHERE tenant_id = $1 AND idempotency_key = $2`,
		tenantID, key)
	return scanLedgerEntry(row)
}

// GetLedgerEntryByID fetches a single entry by primary key.
func (s *Store) GetLedgerEntryByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, debit_account, credit_account, amount, entry_type,
		       source_type, source_id, correlation_id, idempotency_key, metadata,
		       posted_at, reversed_by, is_reversal, reversal_of
		FROM ledger_entries WHERE id = $1`, id)
	return scanLedgerEntry(row)
}

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := row.Scan(&e.ID, &e.TenantID, &e.DebitAccount, &e.CreditAccount, &e.Amount,
		&e.EntryType, &e.SourceType, &e.SourceID, &e.CorrelationID, &e.IdempotencyKey,
		&e.Metadata, &e.PostedAt, &e.ReversedBy, &e.IsReversal, &e.ReversalOf)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	return &e, nil
}

// SetReversalPointer stamps reversed_by on the original entry only while it
// is still unset; when no row is updated it returns ErrAlreadyReversed. The
// schema's UNIQUE(reversal_of) index separately guarantees at most one
// reversal entry per original.
func (s *Store) SetReversalPointer(ctx context.Context, originalID, reversalID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE ledger_entries SET reversed_by = $1
		WHERE id = $2 AND reversed_by IS NULL`, reversalID, originalID)
	if err != nil {
		return fmt.Errorf("set reversal pointer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrAlreadyReversed
	}
	return nil
}

// SumPostedForAccount returns the credit total and the debit total over
// every entry posted against an account, reversed entries and their
// reversals included (a reversal posts the opposite legs, so the pair
// nets to zero). Ledger accounts hold no
// cached balance column; every read recomputes from the append-only log,
// per spec §4.A ("Balance is always derived, never cached").
func (s *Store) SumPostedForAccount(ctx context.Context, accountID uuid.UUID) (credits, debits string, err error) {
	row := s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE credit_account = $1), 0)::text,
			COALESCE(SUM(amount) FILTER (WHERE debit_account = $1), 0)::text
		FROM ledger_entries WHERE credit_account = $1 OR debit_account = $1`, accountID)
	if err := row.Scan(&credits, &debits); err != nil {
		return "", "", fmt.Errorf("sum posted for account: %w", err)
	}
	return credits, debits, nil
}
