package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestReservationCanReleaseAndConsume(t *testing.T) {
	tests := []struct {
		status      ReservationStatus
		canRelease  bool
		canConsume  bool
		isTerminal  bool
	}{
		{ReservationStatusActive, true, true, false},
		{ReservationStatusReleased, false, false, true},
		{ReservationStatusConsumed, false, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			r := &Reservation{Status: tt.status}
			if got := r.CanRelease(); got != tt.canRelease {
				t.Errorf("CanRelease() = %v, want %v", got, tt.canRelease)
			}
			if got := r.CanConsume(); got != tt.canConsume {
				t.Errorf("CanConsume() = %v, want %v", got, tt.canConsume)
			}
			if got := r.IsTerminal(); got != tt.isTerminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.isTerminal)
			}
		})
	}
}

func TestNewReservationIsActive(t *testing.T) {
	r := NewReservation(uuid.New(), uuid.New(), ReserveTypeNetPay, decimal.NewFromInt(1000), "batch-1:net_pay")
	if r.Status != ReservationStatusActive {
		t.Errorf("NewReservation status = %s, want %s", r.Status, ReservationStatusActive)
	}
	if r.ID == uuid.Nil {
		t.Error("NewReservation should assign a non-nil ID")
	}
}
