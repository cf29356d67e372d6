package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// LedgerAccountType is the logical bucket a ledger account represents.
type LedgerAccountType string

const (
	AccountClientFundingClearing  LedgerAccountType = "client_funding_clearing"
	AccountClientNetPayPayable    LedgerAccountType = "client_net_pay_payable"
	AccountClientTaxImpoundPayable LedgerAccountType = "client_tax_impound_payable"
	AccountClientThirdPartyPayable LedgerAccountType = "client_third_party_payable"
	AccountPSPSettlementClearing  LedgerAccountType = "psp_settlement_clearing"
	AccountPSPFeesRevenue         LedgerAccountType = "psp_fees_revenue"
)

// LedgerAccountStatus is the lifecycle state of an account.
type LedgerAccountStatus string

const (
	LedgerAccountStatusActive LedgerAccountStatus = "active"
	LedgerAccountStatusClosed LedgerAccountStatus = "closed"
)

var (
	// ErrUnknownAccountType is returned when an account type is outside the closed enum.
	ErrUnknownAccountType = errors.New("unknown ledger account type")
	// ErrAccountClosed is returned when an operation targets a closed account.
	ErrAccountClosed = errors.New("ledger account is closed")
)

var validAccountTypes = map[LedgerAccountType]bool{
	AccountClientFundingClearing:   true,
	AccountClientNetPayPayable:     true,
	AccountClientTaxImpoundPayable: true,
	AccountClientThirdPartyPayable: true,
	AccountPSPSettlementClearing:   true,
	AccountPSPFeesRevenue:          true,
}

// LedgerAccount is a logical money bucket, unique per (tenant, legal entity, type, currency).
// Accounts are never deleted; they move active -> closed.
type LedgerAccount struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	TenantID      uuid.UUID           `json:"tenant_id" db:"tenant_id"`
	LegalEntityID uuid.UUID           `json:"legal_entity_id" db:"legal_entity_id"`
	Type          LedgerAccountType   `json:"type" db:"type"`
	Currency      string              `json:"currency" db:"currency"`
	Status        LedgerAccountStatus `json:"status" db:"status"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	ClosedAt      *time.Time          `json:"closed_at,omitempty" db:"closed_at"`
}

// Validate checks the account's enum fields are within the closed set.
func (a *LedgerAccount) Validate() error {
	if !validAccountTypes[a.Type] {
		return ErrUnknownAccountType
	}
	if a.Currency == "" {
		return errors.New("currency is required")
	}
	return nil
}

// CanPost reports whether the account may receive new ledger entries.
func (a *LedgerAccount) CanPost() error {
	if a.Status == LedgerAccountStatusClosed {
		return ErrAccountClosed
	}
	return nil
}

// NewLedgerAccount constructs an active account of the given type and currency.
func NewLedgerAccount(tenantID, legalEntityID uuid.UUID, accountType LedgerAccountType, currency string) *LedgerAccount {
	return &LedgerAccount{
		ID:            uuid.New(),
		TenantID:      tenantID,
		LegalEntityID: legalEntityID,
		Type:          accountType,
		Currency:      currency,
		Status:        LedgerAccountStatusActive,
		CreatedAt:     time.Now(),
	}
}
