package models

import (
	"time"

	"github.com/google/uuid"
)

// SettlementLink is a weak, many-to-many relation between a settlement event
// and the ledger entries it caused. It is a lookup-only reference, never an
// ownership edge (spec §3 "Ownership").
type SettlementLink struct {
	ID                uuid.UUID `json:"id" db:"id"`
	TenantID          uuid.UUID `json:"tenant_id" db:"tenant_id"`
	SettlementEventID uuid.UUID `json:"settlement_event_id" db:"settlement_event_id"`
	LedgerEntryID     uuid.UUID `json:"ledger_entry_id" db:"ledger_entry_id"`
	InstructionID     *uuid.UUID `json:"instruction_id,omitempty" db:"instruction_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
