package models

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ulidEntropy is a monotonic entropy source so events minted within the same
// millisecond still sort in creation order.
var ulidEntropy = ulid.Monotonic(rand.Reader, 0)

// EventType is the closed, stable set of domain event payload names (spec §6).
// Names are immutable; fields are additive-only; breaking changes get a V2 name.
type EventType string

const (
	EventPaymentInstructionCreated EventType = "PaymentInstructionCreated"
	EventPaymentSubmitted          EventType = "PaymentSubmitted"
	EventPaymentAccepted           EventType = "PaymentAccepted"
	EventPaymentSettled            EventType = "PaymentSettled"
	EventPaymentReturned           EventType = "PaymentReturned"
	EventPaymentFailed             EventType = "PaymentFailed"
	EventLedgerEntryPosted         EventType = "LedgerEntryPosted"
	EventLedgerEntryReversed       EventType = "LedgerEntryReversed"
	EventReservationCreated        EventType = "ReservationCreated"
	EventReservationReleased       EventType = "ReservationReleased"
	EventReservationConsumed       EventType = "ReservationConsumed"
	EventFundingBlocked            EventType = "FundingBlocked"
	EventLiabilityClassified       EventType = "LiabilityClassified"
	EventSettlementUnmatched       EventType = "SettlementUnmatched"
)

// EventCategory groups event types for subscription filtering.
type EventCategory string

const (
	CategoryPayment     EventCategory = "payment"
	CategoryLedger      EventCategory = "ledger"
	CategoryReservation EventCategory = "reservation"
	CategoryFunding     EventCategory = "funding"
	CategoryLiability   EventCategory = "liability"
	CategorySettlement  EventCategory = "settlement"
)

// DomainEvent is an immutable, self-contained record in the append-only
// event log. Ordered by (tenant, timestamp, event_id); event_id is a ULID
// seeded from timestamp so the two orderings agree.
type DomainEvent struct {
	EventID       ulid.ULID      `json:"event_id" db:"event_id"`
	EventType     EventType      `json:"event_type" db:"event_type"`
	Category      EventCategory  `json:"category" db:"category"`
	TenantID      uuid.UUID      `json:"tenant" db:"tenant_id"`
	CorrelationID uuid.UUID      `json:"correlation_id" db:"correlation_id"`
	CausationID   *ulid.ULID     `json:"causation_id,omitempty" db:"causation_id"`
	Timestamp     time.Time      `json:"timestamp" db:"timestamp"`
	Payload       map[string]any `json:"payload" db:"payload"`
	Version       int            `json:"version" db:"version"`
	Redacted      bool           `json:"redacted,omitempty" db:"redacted"`
}

// NewDomainEvent mints a fresh event with a timestamp-seeded ULID, the
// append-only key used throughout the Event Log (spec §4.B).
func NewDomainEvent(eventType EventType, category EventCategory, tenantID, correlationID uuid.UUID, payload map[string]any) DomainEvent {
	now := time.Now().UTC()
	return DomainEvent{
		EventID:       ulid.MustNew(ulid.Timestamp(now), ulidEntropy),
		EventType:     eventType,
		Category:      category,
		TenantID:      tenantID,
		CorrelationID: correlationID,
		Timestamp:     now,
		Payload:       payload,
		Version:       1,
	}
}

// WithCausation sets the causation id, marking this event as a direct
// consequence of handling the given prior event.
func (e DomainEvent) WithCausation(causedBy ulid.ULID) DomainEvent {
	e.CausationID = &causedBy
	return e
}
