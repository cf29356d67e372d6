package models

import (
	"time"

	"github.com/google/uuid"
)

// LegalEntityStatus represents the lifecycle state of a tenant's legal entity.
type LegalEntityStatus string

const (
	LegalEntityStatusActive    LegalEntityStatus = "active"
	LegalEntityStatusSuspended LegalEntityStatus = "suspended"
	LegalEntityStatusClosed    LegalEntityStatus = "closed"
)

// FundingModel is the client's rule for when funds arrive relative to payment.
type FundingModel string

const (
	FundingModelPrefundAll        FundingModel = "prefund_all"
	FundingModelNetOnly           FundingModel = "net_only"
	FundingModelNetAndThirdParty  FundingModel = "net_and_third_party"
	FundingModelSplitSchedule     FundingModel = "split_schedule"
)

// LegalEntity is the isolation boundary every record in the core is scoped to.
// Every other entity carries (TenantID, LegalEntityID).
type LegalEntity struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	TenantID     uuid.UUID         `json:"tenant_id" db:"tenant_id"`
	Name         string            `json:"name" db:"name"`
	FundingModel FundingModel      `json:"funding_model" db:"funding_model"`
	Status       LegalEntityStatus `json:"status" db:"status"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
}

// CanTransact reports whether the entity may originate new funding or payment activity.
func (e *LegalEntity) CanTransact() bool {
	return e.Status == LegalEntityStatusActive
}
