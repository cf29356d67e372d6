package facade

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/brightpay/ledgercore/src/models"
)

// ReplayEvents returns up to limit domain events for a tenant strictly
// after cursor, in (timestamp, event_id) order. Pass the zero ULID to
// replay a tenant's entire history from the start (spec §4.B: "full
// replay capability").
func (f *Facade) ReplayEvents(ctx context.Context, tenantID uuid.UUID, cursor ulid.ULID, limit int) ([]models.DomainEvent, error) {
	events, err := f.events.Query(ctx, tenantID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("facade: replay events: %w", err)
	}
	return events, nil
}
