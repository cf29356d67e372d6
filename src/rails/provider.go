// Package rails is the uniform abstraction over external payment rail
// providers (ACH, wire, RTP, FedNow, check). The orchestrator and
// reconciler depend only on this package's Provider interface, never on a
// specific bank or processor SDK (spec §4.F).
package rails

import (
	"context"
	"time"

	"github.com/brightpay/ledgercore/src/models"
)

// Capabilities describes what a provider supports, consulted by the
// orchestrator's rail-selection tie-break (spec §4.G).
type Capabilities struct {
	SupportedRails      []models.Rail
	CutoffTimes         map[models.Rail]time.Duration // time-of-day offset from midnight UTC
	MaxPerTxn           map[models.Rail]string         // decimal string, kept untyped to avoid import cycles on decimal in this struct literal
	SettlementTimeline  map[models.Rail]time.Duration
	SupportsCancel      bool
	SupportsBatch       bool
}

// SubmitResult is the outcome of a single rail submission attempt.
type SubmitResult struct {
	ProviderRequestID string
	Status            models.AttemptStatus
	Retryable         bool
}

// Provider is implemented once per external rail integration. Submit must
// itself be idempotent keyed on the instruction's idempotency key, since
// network retries can cause the orchestrator to call it twice for the same
// logical attempt.
type Provider interface {
	Name() string
	Capabilities() Capabilities
	Submit(ctx context.Context, instruction *models.PaymentInstruction, idempotencyKey string) (SubmitResult, error)
	GetStatus(ctx context.Context, providerRequestID string) (models.AttemptStatus, error)
	Cancel(ctx context.Context, providerRequestID string) (bool, error)
	Reconcile(ctx context.Context, date time.Time) ([]models.SettlementEvent, error)
	ParseWebhook(ctx context.Context, body []byte, headers map[string]string) (*models.SettlementEvent, error)
}

// StatusMapper converts a provider-native status string to the canonical
// closed set defined in spec §3. Kept as a pure function type so each
// provider's mapping table is trivially unit-testable in isolation.
type StatusMapper func(providerStatus string) (models.SettlementStatus, error)
