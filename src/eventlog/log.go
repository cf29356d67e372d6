// Package eventlog is the append-only domain event log: every state change
// elsewhere in the module is mirrored here as an immutable, ordered record
// (spec §4.B). Nothing outside this package writes to the domain_events
// table directly.
package eventlog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/brightpay/ledgercore/src/models"
	"github.com/brightpay/ledgercore/src/storage"
)

// Log appends and replays domain events.
type Log struct {
	store *storage.Store
	log   *zap.Logger
}

// New constructs an event log backed by store.
func New(store *storage.Store, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{store: store, log: logger}
}

// Append writes a single domain event. Callers build the event with
// models.NewDomainEvent so event_id is always a timestamp-seeded ULID.
func (l *Log) Append(ctx context.Context, e models.DomainEvent) error {
	if err := l.store.AppendEvent(ctx, e); err != nil {
		return fmt.Errorf("eventlog append: %w", err)
	}
	l.log.Debug("event appended",
		zap.String("event_type", string(e.EventType)),
		zap.String("event_id", e.EventID.String()),
		zap.String("tenant_id", e.TenantID.String()))
	return nil
}

// Query returns up to limit events for a tenant strictly after cursor,
// ordered by event_id (a timestamp-seeded ULID). A zero-value cursor
// replays from the beginning of the tenant's history.
func (l *Log) Query(ctx context.Context, tenantID uuid.UUID, cursor ulid.ULID, limit int) ([]models.DomainEvent, error) {
	events, err := l.store.QueryEventsAfter(ctx, tenantID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("eventlog query: %w", err)
	}
	return events, nil
}

// GetForSubscriber returns the next page of events a named subscriber
// hasn't yet seen, filtered by that subscriber's type/category/tenant
// filters, without advancing its cursor. Call AdvanceSubscriber once the
// caller has durably processed the page.
func (l *Log) GetForSubscriber(ctx context.Context, name string, pageSize int) ([]models.DomainEvent, error) {
	sub, err := l.store.GetSubscription(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("eventlog get subscriber %q: %w", name, err)
	}
	if !sub.Active {
		return nil, nil
	}
	tenant := uuid.Nil
	if sub.TenantFilter != nil {
		tenant = *sub.TenantFilter
	}
	candidates, err := l.store.QueryEventsAfter(ctx, tenant, sub.CursorEventID, pageSize*4)
	if err != nil {
		return nil, fmt.Errorf("eventlog query for subscriber %q: %w", name, err)
	}
	out := make([]models.DomainEvent, 0, pageSize)
	for _, e := range candidates {
		if sub.Matches(e) {
			out = append(out, e)
		}
		if len(out) == pageSize {
			break
		}
	}
	return out, nil
}

// AdvanceSubscriber moves a subscriber's cursor past the given event,
// recording that everything up to and including it has been processed.
func (l *Log) AdvanceSubscriber(ctx context.Context, name string, through models.DomainEvent) error {
	sub, err := l.store.GetSubscription(ctx, name)
	if err != nil {
		return fmt.Errorf("eventlog advance subscriber %q: %w", name, err)
	}
	sub.CursorEventID = through.EventID
	sub.CursorTimestamp = through.Timestamp
	if err := l.store.UpsertSubscription(ctx, *sub); err != nil {
		return fmt.Errorf("eventlog persist subscriber cursor %q: %w", name, err)
	}
	return nil
}

// Subscribe registers a new named subscriber starting from the given
// cursor (the zero ULID to replay from the start of history).
func (l *Log) Subscribe(ctx context.Context, sub models.EventSubscription) error {
	sub.Active = true
	if err := l.store.UpsertSubscription(ctx, sub); err != nil {
		return fmt.Errorf("eventlog subscribe %q: %w", sub.Name, err)
	}
	return nil
}

// PurgeEventPayload redacts a single event's payload for an erasure
// request while preserving its position in the ordered log (spec §4.B
// "payload may be redacted... the row/order is never removed").
// sessionFlag must be true, forwarded to the storage layer, which refuses
// the purge otherwise.
func (l *Log) PurgeEventPayload(ctx context.Context, eventID ulid.ULID, sessionFlag bool) error {
	if err := l.store.PurgeEventPayload(ctx, eventID, sessionFlag); err != nil {
		return fmt.Errorf("eventlog purge payload: %w", err)
	}
	return nil
}
