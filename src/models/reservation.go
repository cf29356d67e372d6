package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReserveType names what a reservation is holding funds against.
type ReserveType string

const (
	ReserveTypeNetPay     ReserveType = "net_pay"
	ReserveTypeTax        ReserveType = "tax"
	ReserveTypeThirdParty ReserveType = "third_party"
	ReserveTypeFees       ReserveType = "fees"
	// ReserveTypeCommitHold is the whole-batch hold the Commit Gate creates
	// on pass, before individual net_pay/tax/third_party/fees instructions
	// have even been split out (spec §4.D/§4.E).
	ReserveTypeCommitHold ReserveType = "commit_hold"
)

// ReservationStatus is the one-way lifecycle state of a hold.
type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "active"
	ReservationStatusReleased ReservationStatus = "released"
	ReservationStatusConsumed ReservationStatus = "consumed"
)

// ErrInsufficientAvailable is returned when a reservation would exceed available balance.
var ErrInsufficientAvailable = errors.New("insufficient available balance")

// ErrReservationTerminal is returned when a transition is attempted on a
// reservation that has already left the active state.
var ErrReservationTerminal = errors.New("reservation is already in a terminal state")

// Reservation holds funds against an account without moving money. It
// transitions one-way: active -> released or active -> consumed.
type Reservation struct {
	ID         uuid.UUID         `json:"id" db:"id"`
	TenantID   uuid.UUID         `json:"tenant_id" db:"tenant_id"`
	AccountID  uuid.UUID         `json:"account_id" db:"account_id"`
	ReserveType ReserveType      `json:"reserve_type" db:"reserve_type"`
	Amount     decimal.Decimal   `json:"amount" db:"amount"`
	Status     ReservationStatus `json:"status" db:"status"`
	SourceRef  string            `json:"source_ref" db:"source_ref"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	ReleasedAt *time.Time        `json:"released_at,omitempty" db:"released_at"`
}

// CanRelease reports whether the reservation is still active.
func (r *Reservation) CanRelease() bool {
	return r.Status == ReservationStatusActive
}

// CanConsume reports whether the reservation is still active.
func (r *Reservation) CanConsume() bool {
	return r.Status == ReservationStatusActive
}

// IsTerminal reports whether the reservation has left the active state.
func (r *Reservation) IsTerminal() bool {
	return r.Status == ReservationStatusReleased || r.Status == ReservationStatusConsumed
}

// NewReservation constructs an active reservation for the given account.
func NewReservation(tenantID, accountID uuid.UUID, reserveType ReserveType, amount decimal.Decimal, sourceRef string) *Reservation {
	return &Reservation{
		ID:          uuid.New(),
		TenantID:    tenantID,
		AccountID:   accountID,
		ReserveType: reserveType,
		Amount:      amount,
		Status:      ReservationStatusActive,
		SourceRef:   sourceRef,
		CreatedAt:   time.Now(),
	}
}
