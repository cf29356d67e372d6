package models

import "testing"

func TestInstructionCanTransitionTo(t *testing.T) {
	tests := []struct {
		name        string
		fromStatus  InstructionStatus
		toStatus    InstructionStatus
		shouldAllow bool
	}{
		{"created to queued", InstructionStatusCreated, InstructionStatusQueued, true},
		{"created to submitted", InstructionStatusCreated, InstructionStatusSubmitted, false},
		{"queued to submitted", InstructionStatusQueued, InstructionStatusSubmitted, true},
		{"queued to accepted", InstructionStatusQueued, InstructionStatusAccepted, false},
		{"submitted to accepted", InstructionStatusSubmitted, InstructionStatusAccepted, true},
		{"submitted to failed", InstructionStatusSubmitted, InstructionStatusFailed, true},
		{"submitted to canceled", InstructionStatusSubmitted, InstructionStatusCanceled, true},
		{"submitted to settled", InstructionStatusSubmitted, InstructionStatusSettled, false},
		{"accepted to settled", InstructionStatusAccepted, InstructionStatusSettled, true},
		{"accepted to returned", InstructionStatusAccepted, InstructionStatusReturned, true},
		{"accepted to reversed", InstructionStatusAccepted, InstructionStatusReversed, true},
		{"accepted to canceled", InstructionStatusAccepted, InstructionStatusCanceled, true},
		{"settled to returned", InstructionStatusSettled, InstructionStatusReturned, true},
		{"settled to reversed", InstructionStatusSettled, InstructionStatusReversed, true},
		{"settled to failed", InstructionStatusSettled, InstructionStatusFailed, false},
		{"failed to any", InstructionStatusFailed, InstructionStatusQueued, false},
		{"canceled to any", InstructionStatusCanceled, InstructionStatusQueued, false},
		{"returned to any", InstructionStatusReturned, InstructionStatusQueued, false},
		{"reversed to any", InstructionStatusReversed, InstructionStatusQueued, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &PaymentInstruction{Status: tt.fromStatus}
			if got := p.CanTransitionTo(tt.toStatus); got != tt.shouldAllow {
				t.Errorf("CanTransitionTo(%s from %s) = %v, want %v", tt.toStatus, tt.fromStatus, got, tt.shouldAllow)
			}
		})
	}
}

func TestInstructionIsTerminal(t *testing.T) {
	tests := []struct {
		status     InstructionStatus
		isTerminal bool
	}{
		{InstructionStatusCreated, false},
		{InstructionStatusQueued, false},
		{InstructionStatusSubmitted, false},
		{InstructionStatusAccepted, false},
		{InstructionStatusSettled, false},
		{InstructionStatusFailed, true},
		{InstructionStatusCanceled, true},
		{InstructionStatusReturned, true},
		{InstructionStatusReversed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			p := &PaymentInstruction{Status: tt.status}
			if got := p.IsTerminal(); got != tt.isTerminal {
				t.Errorf("IsTerminal() = %v for status %s, want %v", got, tt.status, tt.isTerminal)
			}
		})
	}
}
