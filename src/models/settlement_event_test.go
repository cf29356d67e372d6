package models

import "testing"

func TestSettlementCanTransitionTo(t *testing.T) {
	tests := []struct {
		name        string
		fromStatus  SettlementStatus
		toStatus    SettlementStatus
		shouldAllow bool
	}{
		{"pending to submitted", SettlementStatusPending, SettlementStatusSubmitted, true},
		{"pending to canceled", SettlementStatusPending, SettlementStatusCanceled, true},
		{"pending to accepted", SettlementStatusPending, SettlementStatusAccepted, false},
		{"submitted to accepted", SettlementStatusSubmitted, SettlementStatusAccepted, true},
		{"submitted to settled", SettlementStatusSubmitted, SettlementStatusSettled, false},
		{"accepted to settled", SettlementStatusAccepted, SettlementStatusSettled, true},
		{"accepted to returned", SettlementStatusAccepted, SettlementStatusReturned, true},
		{"accepted to rejected", SettlementStatusAccepted, SettlementStatusRejected, true},
		{"settled to returned", SettlementStatusSettled, SettlementStatusReturned, true},
		{"settled to rejected", SettlementStatusSettled, SettlementStatusRejected, false},
		{"rejected to any", SettlementStatusRejected, SettlementStatusSettled, false},
		{"canceled to any", SettlementStatusCanceled, SettlementStatusSubmitted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SettlementEvent{Status: tt.fromStatus}
			if got := s.CanTransitionTo(tt.toStatus); got != tt.shouldAllow {
				t.Errorf("CanTransitionTo(%s from %s) = %v, want %v", tt.toStatus, tt.fromStatus, got, tt.shouldAllow)
			}
		})
	}
}

func TestSettlementIsPostSettlementReturn(t *testing.T) {
	tests := []struct {
		name       string
		fromStatus SettlementStatus
		toStatus   SettlementStatus
		want       bool
	}{
		{"settled to returned is post-settlement", SettlementStatusSettled, SettlementStatusReturned, true},
		{"settled to reversed is post-settlement", SettlementStatusSettled, SettlementStatusReversed, true},
		{"accepted to returned is not post-settlement", SettlementStatusAccepted, SettlementStatusReturned, false},
		{"settled to settled is not a return", SettlementStatusSettled, SettlementStatusSettled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SettlementEvent{Status: tt.fromStatus}
			if got := s.IsPostSettlementReturn(tt.toStatus); got != tt.want {
				t.Errorf("IsPostSettlementReturn(%s from %s) = %v, want %v", tt.toStatus, tt.fromStatus, got, tt.want)
			}
		})
	}
}
