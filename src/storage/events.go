package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/brightpay/ledgercore/src/models"
)

// AppendEvent inserts a domain event. The event log never updates or
// deletes rows; the one sanctioned exception is PurgeEventPayload, which
// blanks payload in place for erasure requests without breaking ordering.
func (s *Store) AppendEvent(ctx context.Context, e models.DomainEvent) error {
	var causationID []byte
	if e.CausationID != nil {
		causationID = e.CausationID[:]
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO domain_events (event_id, event_type, category, tenant_id, correlation_id, causation_id, timestamp, payload, version, redacted)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.EventID[:], e.EventType, e.Category, e.TenantID, e.CorrelationID, causationID, e.Timestamp, e.Payload, e.Version, e.Redacted)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// QueryEventsAfter returns up to limit events for a tenant (for every tenant
// when tenantID is uuid.Nil) strictly after the given cursor, ordered by
// event_id, a ULID seeded from the event's timestamp — the replay primitive
// every subscriber and the facade's ReplayEvents build on.
func (s *Store) QueryEventsAfter(ctx context.Context, tenantID uuid.UUID, cursor ulid.ULID, limit int) ([]models.DomainEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, event_type, category, tenant_id, correlation_id, causation_id, timestamp, payload, version, redacted
		FROM domain_events
		WHERE (tenant_id = $1 OR $1 = '00000000-0000-0000-0000-000000000000'::uuid) AND event_id > $2
		ORDER BY event_id ASC
		LIMIT $3`, tenantID, cursor[:], limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	var out []models.DomainEvent
	for rows.Next() {
		e, err := scanDomainEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanDomainEvent(row pgx.Row) (models.DomainEvent, error) {
	var e models.DomainEvent
	var eventID, causationID []byte
	err := row.Scan(&eventID, &e.EventType, &e.Category, &e.TenantID, &e.CorrelationID, &causationID, &e.Timestamp, &e.Payload, &e.Version, &e.Redacted)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DomainEvent{}, ErrNotFound
	}
	if err != nil {
		return models.DomainEvent{}, fmt.Errorf("scan domain event: %w", err)
	}
	copy(e.EventID[:], eventID)
	if causationID != nil {
		var c ulid.ULID
		copy(c[:], causationID)
		e.CausationID = &c
	}
	return e, nil
}

// ErrSessionFlagRequired is returned by PurgeEventPayload when sessionFlag
// is false, refusing to redact an event payload outside of a caller that
// has explicitly opted into the erasure session.
var ErrSessionFlagRequired = errors.New("purge event payload: sessionFlag must be explicitly set")

// PurgeEventPayload redacts a single event's payload for GDPR-style erasure
// requests. It never removes the row itself, preserving ordering and the
// audit fact that an event occurred; only the payload contents are blanked.
// sessionFlag must be true, requiring the caller to have deliberately
// scoped this call to an erasure session rather than reaching it by
// accident from some other code path.
func (s *Store) PurgeEventPayload(ctx context.Context, eventID ulid.ULID, sessionFlag bool) error {
	if !sessionFlag {
		return ErrSessionFlagRequired
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE domain_events SET payload = '{}'::jsonb, redacted = true WHERE event_id = $1`, eventID[:])
	if err != nil {
		return fmt.Errorf("purge event payload: %w", err)
	}
	return nil
}

// UpsertSubscription creates or advances a named subscriber's cursor.
func (s *Store) UpsertSubscription(ctx context.Context, sub models.EventSubscription) error {
	types := make([]string, len(sub.TypeFilter))
	for i, t := range sub.TypeFilter {
		types[i] = string(t)
	}
	cats := make([]string, len(sub.CategoryFilter))
	for i, c := range sub.CategoryFilter {
		cats[i] = string(c)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO event_subscriptions (name, cursor_event_id, cursor_timestamp, type_filter, category_filter, tenant_filter, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (name) DO UPDATE SET
			cursor_event_id = EXCLUDED.cursor_event_id,
			cursor_timestamp = EXCLUDED.cursor_timestamp,
			active = EXCLUDED.active`,
		sub.Name, sub.CursorEventID[:], sub.CursorTimestamp, types, cats, sub.TenantFilter, sub.Active)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// GetSubscription fetches a subscriber's current cursor and filters.
func (s *Store) GetSubscription(ctx context.Context, name string) (*models.EventSubscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT name, cursor_event_id, cursor_timestamp, type_filter, category_filter, tenant_filter, active
		FROM event_subscriptions WHERE name = $1`, name)
	var sub models.EventSubscription
	var cursorID []byte
	var types, cats []string
	err := row.Scan(&sub.Name, &cursorID, &sub.CursorTimestamp, &types, &cats, &sub.TenantFilter, &sub.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	copy(sub.CursorEventID[:], cursorID)
	sub.TypeFilter = make([]models.EventType, len(types))
	for i, t := range types {
		sub.TypeFilter[i] = models.EventType(t)
	}
	sub.CategoryFilter = make([]models.EventCategory, len(cats))
	for i, c := range cats {
		sub.CategoryFilter[i] = models.EventCategory(c)
	}
	return &sub, nil
}
