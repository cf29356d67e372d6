package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FundingRequestStatus is the lifecycle of a client-to-PSP inbound funds intent.
type FundingRequestStatus string

const (
	FundingRequestStatusCreated   FundingRequestStatus = "created"
	FundingRequestStatusSubmitted FundingRequestStatus = "submitted"
	FundingRequestStatusAccepted  FundingRequestStatus = "accepted"
	FundingRequestStatusSettled   FundingRequestStatus = "settled"
	FundingRequestStatusFailed    FundingRequestStatus = "failed"
	FundingRequestStatusReturned  FundingRequestStatus = "returned"
	FundingRequestStatusCanceled  FundingRequestStatus = "canceled"
)

var fundingRequestTransitions = map[FundingRequestStatus][]FundingRequestStatus{
	FundingRequestStatusCreated:   {FundingRequestStatusSubmitted, FundingRequestStatusCanceled},
	FundingRequestStatusSubmitted: {FundingRequestStatusAccepted, FundingRequestStatusFailed, FundingRequestStatusCanceled},
	FundingRequestStatusAccepted:  {FundingRequestStatusSettled, FundingRequestStatusFailed, FundingRequestStatusReturned},
	FundingRequestStatusSettled:   {FundingRequestStatusReturned},
	FundingRequestStatusFailed:    {},
	FundingRequestStatusReturned:  {},
	FundingRequestStatusCanceled:  {},
}

// FundingRequest is the client's inbound funds intent feeding the commit gate.
type FundingRequest struct {
	ID                      uuid.UUID            `json:"id" db:"id"`
	TenantID                uuid.UUID             `json:"tenant_id" db:"tenant_id"`
	LegalEntityID           uuid.UUID             `json:"legal_entity_id" db:"legal_entity_id"`
	FundingModel            FundingModel          `json:"funding_model" db:"funding_model"`
	Rail                    Rail                  `json:"rail" db:"rail"`
	Amount                  decimal.Decimal       `json:"amount" db:"amount"`
	RequestedSettlementDate time.Time             `json:"requested_settlement_date" db:"requested_settlement_date"`
	Status                  FundingRequestStatus  `json:"status" db:"status"`
	IdempotencyKey          string                `json:"idempotency_key" db:"idempotency_key"`
	CreatedAt               time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time             `json:"updated_at" db:"updated_at"`
}

// CanTransitionTo reports whether a status change is a valid forward edge.
func (f *FundingRequest) CanTransitionTo(next FundingRequestStatus) bool {
	for _, s := range fundingRequestTransitions[f.Status] {
		if s == next {
			return true
		}
	}
	return false
}
