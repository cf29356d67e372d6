package models

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus is the canonical status of a single rail submission.
type AttemptStatus string

const (
	AttemptStatusSubmitted AttemptStatus = "submitted"
	AttemptStatusAccepted  AttemptStatus = "accepted"
	AttemptStatusFailed    AttemptStatus = "failed"
)

// PaymentAttempt is a single rail-specific submission of an instruction to a provider.
// (Provider, ProviderRequestID) is globally unique.
type PaymentAttempt struct {
	ID                uuid.UUID      `json:"id" db:"id"`
	TenantID          uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	InstructionID     uuid.UUID      `json:"instruction_id" db:"instruction_id"`
	Rail              Rail           `json:"rail" db:"rail"`
	Provider          string         `json:"provider" db:"provider"`
	ProviderRequestID string         `json:"provider_request_id" db:"provider_request_id"`
	Status            AttemptStatus  `json:"status" db:"status"`
	RequestPayload    map[string]any `json:"request_payload,omitempty" db:"request_payload"`
	Retryable         bool           `json:"retryable" db:"retryable"`
	AttemptNumber     int            `json:"attempt_number" db:"attempt_number"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}
