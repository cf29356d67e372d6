package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brightpay/ledgercore/src/models"
)

// InsertLegalEntity creates a new legal entity.
func (s *Store) InsertLegalEntity(ctx context.Context, e *models.LegalEntity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO legal_entities (id, tenant_id, name, funding_model, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.TenantID, e.Name, e.FundingModel, e.Status, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert legal entity: %w", err)
	}
	return nil
}

// GetOrCreateLedgerAccount fetches the account for (tenant, legal entity,
// type, currency), creating it on first use. Accounts are never created
// ad hoc mid-transaction elsewhere; this is the single entry point so the
// UNIQUE(tenant, legal_entity, type, currency) index is the only source of
// truth for "does this bucket already exist."
func (s *Store) GetOrCreateLedgerAccount(ctx context.Context, tenantID, legalEntityID uuid.UUID, accountType models.LedgerAccountType, currency string) (*models.LedgerAccount, error) {
	existing, err := s.GetLedgerAccount(ctx, tenantID, legalEntityID, accountType, currency)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	a := models.NewLedgerAccount(tenantID, legalEntityID, accountType, currency)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO ledger_accounts (id, tenant_id, legal_entity_id, type, currency, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (tenant_id, legal_entity_id, type, currency) DO NOTHING`,
		a.ID, a.TenantID, a.LegalEntityID, a.Type, a.Currency, a.Status, a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert ledger account: %w", err)
	}
	return s.GetLedgerAccount(ctx, tenantID, legalEntityID, accountType, currency)
}

// GetLedgerAccount looks up an account by its natural key.
func (s *Store) GetLedgerAccount(ctx context.Context, tenantID, legalEntityID uuid.UUID, accountType models.LedgerAccountType, currency string) (*models.LedgerAccount, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, legal_entity_id, type, currency, status, created_at, closed_at
		FROM ledger_accounts WHERE tenant_id = $1 AND legal_entity_id = $2 AND type = $3 AND currency = $4`,
		tenantID, legalEntityID, accountType, currency)
	return scanLedgerAccount(row)
}

// GetLedgerAccountByID looks up an account by primary key.
func (s *Store) GetLedgerAccountByID(ctx context.Context, id uuid.UUID) (*models.LedgerAccount, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, legal_entity_id, type, currency, status, created_at, closed_at
		FROM ledger_accounts WHERE id = $1`, id)
	return scanLedgerAccount(row)
}

func scanLedgerAccount(row pgx.Row) (*models.LedgerAccount, error) {
	var a models.LedgerAccount
	err := row.Scan(&a.ID, &a.TenantID, &a.LegalEntityID, &a.Type, &a.Currency, &a.Status, &a.CreatedAt, &a.ClosedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan ledger account: %w", err)
	}
	return &a, nil
}

// InsertBankAccount registers a settlement bank account and its rail capabilities.
func (s *Store) InsertBankAccount(ctx context.Context, b *models.BankAccount) error {
	rails := make([]string, len(b.SupportedRails))
	for i, r := range b.SupportedRails {
		rails[i] = string(r)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bank_accounts (id, tenant_id, token, nickname, supported_rails, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.TenantID, b.Token, b.Nickname, rails, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bank account: %w", err)
	}
	return nil
}

// GetBankAccount fetches a settlement bank account by primary key.
func (s *Store) GetBankAccount(ctx context.Context, id uuid.UUID) (*models.BankAccount, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, token, nickname, supported_rails, created_at
		FROM bank_accounts WHERE id = $1`, id)
	var b models.BankAccount
	var rails []string
	if err := row.Scan(&b.ID, &b.TenantID, &b.Token, &b.Nickname, &rails, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan bank account: %w", err)
	}
	b.SupportedRails = make([]models.Rail, len(rails))
	for i, r := range rails {
		b.SupportedRails[i] = models.Rail(r)
	}
	return &b, nil
}
