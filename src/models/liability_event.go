package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LiabilitySource names the kind of record a liability determination stems from.
type LiabilitySource string

const (
	LiabilitySourceInstruction     LiabilitySource = "instruction"
	LiabilitySourceSettlement      LiabilitySource = "settlement"
	LiabilitySourceFundingRequest  LiabilitySource = "funding_request"
)

// ErrorOrigin names where in the money-movement chain a loss originated.
type ErrorOrigin string

const (
	ErrorOriginRecipient ErrorOrigin = "recipient"
	ErrorOriginSender    ErrorOrigin = "sender"
	ErrorOriginBank      ErrorOrigin = "bank"
	ErrorOriginPSP       ErrorOrigin = "psp"
	ErrorOriginUnknown   ErrorOrigin = "unknown"
)

// LiabilityParty names who bears the loss.
type LiabilityParty string

const (
	LiabilityPartyEmployer LiabilityParty = "employer"
	LiabilityPartyEmployee LiabilityParty = "employee"
	LiabilityPartyPSP      LiabilityParty = "psp"
	LiabilityPartyPending  LiabilityParty = "pending"
)

// RecoveryPath names how the PSP intends to recover a loss, if at all.
type RecoveryPath string

const (
	RecoveryPathOffsetFuture      RecoveryPath = "offset_future"
	RecoveryPathManualCollection  RecoveryPath = "manual_collection"
	RecoveryPathWriteOff          RecoveryPath = "write_off"
	RecoveryPathNone              RecoveryPath = "none"
)

// RecoveryStatus tracks progress of an active recovery effort.
type RecoveryStatus string

const (
	RecoveryStatusOpen     RecoveryStatus = "open"
	RecoveryStatusRecovered RecoveryStatus = "recovered"
	RecoveryStatusWrittenOff RecoveryStatus = "written_off"
)

// LiabilityEvent is an append-only determination of who bears a loss and how
// it will be recovered. Unique per (tenant, idempotency_key); enforcement
// may append overrides but never edits or reopens an existing row.
type LiabilityEvent struct {
	ID                  uuid.UUID       `json:"id" db:"id"`
	TenantID            uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Source              LiabilitySource `json:"source" db:"source"`
	SourceID            uuid.UUID       `json:"source_id" db:"source_id"`
	ErrorOrigin         ErrorOrigin     `json:"error_origin" db:"error_origin"`
	LiabilityParty      LiabilityParty  `json:"liability_party" db:"liability_party"`
	RecoveryPath        RecoveryPath    `json:"recovery_path" db:"recovery_path"`
	RecoveryStatus      RecoveryStatus  `json:"recovery_status" db:"recovery_status"`
	LossAmount          decimal.Decimal `json:"loss_amount" db:"loss_amount"`
	DeterminationReason string          `json:"determination_reason" db:"determination_reason"`
	Evidence            map[string]any  `json:"evidence,omitempty" db:"evidence"`
	IdempotencyKey       string         `json:"idempotency_key" db:"idempotency_key"`
	CorrelationID        uuid.UUID      `json:"correlation_id" db:"correlation_id"`
	RequiresManualReview bool           `json:"requires_manual_review" db:"requires_manual_review"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
}
