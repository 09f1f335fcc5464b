package models

import "testing"

func TestValidTimeSlot(t *testing.T) {
	for _, s := range TimeSlots {
		if !ValidTimeSlot(s.Key) {
			t.Errorf("slot %q rejected", s.Key)
		}
	}
	for _, key := range []string{"", "0", "7", "1ª aula"} {
		if ValidTimeSlot(key) {
			t.Errorf("slot %q accepted", key)
		}
	}
}

func TestDeviceLendable(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{DeviceAvailable, true},
		{DeviceLoaned, true},
		{DeviceMaintenance, true},
		{DeviceFixedLocation, false},
		{DeviceDecommissioned, false},
	}
	for _, tt := range tests {
		if got := (Device{Status: tt.status}).Lendable(); got != tt.want {
			t.Errorf("Lendable(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestLoanOpen(t *testing.T) {
	l := Loan{}
	if !l.Open() {
		t.Error("loan without return date must be open")
	}
	now := l.CreatedAt
	l.ReturnDate = &now
	if l.Open() {
		t.Error("returned loan must be closed")
	}
}
