package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// EventSubscription tracks a named consumer's cursor position in the event log.
type EventSubscription struct {
	Name            string          `json:"name" db:"name"`
	CursorEventID   ulid.ULID       `json:"cursor_event_id" db:"cursor_event_id"`
	CursorTimestamp time.Time       `json:"cursor_timestamp" db:"cursor_timestamp"`
	TypeFilter      []EventType     `json:"type_filter,omitempty" db:"type_filter"`
	CategoryFilter  []EventCategory `json:"category_filter,omitempty" db:"category_filter"`
	TenantFilter    *uuid.UUID      `json:"tenant_filter,omitempty" db:"tenant_filter"`
	Active          bool            `json:"active" db:"active"`
}

// Matches reports whether an event passes this subscription's filters.
func (s *EventSubscription) Matches(e DomainEvent) bool {
	if s.TenantFilter != nil && *s.TenantFilter != e.TenantID {
		return false
	}
	if len(s.TypeFilter) > 0 && !containsType(s.TypeFilter, e.EventType) {
		return false
	}
	if len(s.CategoryFilter) > 0 && !containsCategory(s.CategoryFilter, e.Category) {
		return false
	}
	return true
}

func containsType(set []EventType, t EventType) bool {
	for _, candidate := range set {
		if candidate == t {
			return true
		}
	}
	return false
}

func containsCategory(set []EventCategory, c EventCategory) bool {
	for _, candidate := range set {
		if candidate == c {
			return true
		}
	}
	return false
}
