package models

import (
	"time"

	"github.com/google/uuid"
)

// Rail is the payment network a money movement travels over.
type Rail string

const (
	RailACH    Rail = "ach"
	RailWire   Rail = "wire"
	RailRTP    Rail = "rtp"
	RailFedNow Rail = "fednow"
	RailCheck  Rail = "check"
)

// BankAccount is a tokenized settlement account owned by the PSP, with a
// declared set of rail capabilities.
type BankAccount struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	TenantID           uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Token              string    `json:"token" db:"token"`
	Nickname           string    `json:"nickname" db:"nickname"`
	SupportedRails     []Rail    `json:"supported_rails" db:"supported_rails"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// SupportsRail reports whether the account can settle over the given rail.
func (b *BankAccount) SupportsRail(r Rail) bool {
	for _, supported := range b.SupportedRails {
		if supported == r {
			return true
		}
	}
	return false
}
