package availability

import (
	"testing"
	"time"

	"chromebook_lending/models"
)

var loc = time.UTC

func at(day, hour, min int) time.Time {
	return time.Date(2025, 3, day, hour, min, 0, 0, loc)
}

func loan(id string, start time.Time, end *time.Time) models.Loan {
	return models.Loan{ID: id, LoanDate: start, ReturnDate: end}
}

func ptr(t time.Time) *time.Time { return &t }

func TestOccupancyAt(t *testing.T) {
	now := at(10, 17, 0)
	loans := []models.Loan{
		loan("a", at(10, 8, 0), ptr(at(10, 12, 0))),
		loan("b", at(10, 9, 0), nil),             // still out
		loan("c", at(10, 14, 0), ptr(at(10, 16, 0))),
	}

	tests := []struct {
		name  string
		check time.Time
		count int
	}{
		{"before any loan", at(10, 7, 0), 0},
		{"both morning loans out", at(10, 10, 30), 2},
		{"one returned", at(10, 13, 0), 1},
		{"afternoon overlap", at(10, 15, 0), 2},
		{"open loan ends at now", at(10, 16, 30), 1},
		{"future point, open loan not ongoing", at(10, 18, 0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ := OccupancyAt(tt.check, now, loans, 10)
			if occ.Count != tt.count {
				t.Errorf("count = %d, want %d", occ.Count, tt.count)
			}
			if len(occ.LoanIDs) != tt.count {
				t.Errorf("len(LoanIDs) = %d, want %d", len(occ.LoanIDs), tt.count)
			}
		})
	}
}

func TestOccupancyMonotonicInOverlaps(t *testing.T) {
	now := at(10, 17, 0)
	check := at(10, 10, 0)
	loans := []models.Loan{loan("a", at(10, 9, 0), nil)}

	before := OccupancyAt(check, now, loans, 5).Count

	// Adding an overlapping loan increases the count.
	loans = append(loans, loan("b", at(10, 9, 30), nil))
	if got := OccupancyAt(check, now, loans, 5).Count; got != before+1 {
		t.Errorf("overlapping loan: count = %d, want %d", got, before+1)
	}

	// Adding a non-overlapping loan changes nothing.
	loans = append(loans, loan("c", at(10, 14, 0), ptr(at(10, 15, 0))))
	if got := OccupancyAt(check, now, loans, 5).Count; got != before+1 {
		t.Errorf("non-overlapping loan changed count: %d", got)
	}
}

func TestOccupancyRateZeroCapacity(t *testing.T) {
	now := at(10, 12, 0)
	loans := []models.Loan{loan("a", at(10, 8, 0), nil)}
	occ := OccupancyAt(at(10, 10, 0), now, loans, 0)
	if occ.Rate != 0 {
		t.Errorf("rate with zero capacity = %v, want 0", occ.Rate)
	}
}

func TestOccupancyRateClamped(t *testing.T) {
	now := at(10, 12, 0)
	loans := []models.Loan{
		loan("a", at(10, 8, 0), nil),
		loan("b", at(10, 8, 0), nil),
		loan("c", at(10, 8, 0), nil),
	}
	occ := OccupancyAt(at(10, 10, 0), now, loans, 2)
	if occ.Rate != 100 {
		t.Errorf("rate = %v, want clamp at 100", occ.Rate)
	}
}

func TestPeakOccupancyEmptyDay(t *testing.T) {
	now := at(11, 12, 0)
	start, end := at(10, 0, 0), at(10, 23, 59)
	peak := PeakOccupancy(&start, &end, 7, 18, nil, 10, now)

	if peak.MaxRate != 0 {
		t.Errorf("MaxRate = %v, want 0", peak.MaxRate)
	}
	if peak.PeakTime != nil {
		t.Errorf("PeakTime = %v, want nil", peak.PeakTime)
	}
	if len(peak.LoanIDs) != 0 {
		t.Errorf("LoanIDs = %v, want empty", peak.LoanIDs)
	}
}

func TestPeakOccupancyFirstOccurrenceWins(t *testing.T) {
	now := at(12, 20, 0)
	// Same concurrency (2) in the morning and the afternoon; the morning
	// sample must win.
	loans := []models.Loan{
		loan("a", at(10, 8, 0), ptr(at(10, 11, 0))),
		loan("b", at(10, 8, 0), ptr(at(10, 11, 0))),
		loan("c", at(10, 14, 0), ptr(at(10, 16, 0))),
		loan("d", at(10, 14, 0), ptr(at(10, 16, 0))),
	}
	start, end := at(10, 0, 0), at(10, 23, 59)
	peak := PeakOccupancy(&start, &end, 7, 18, loans, 10, now)

	if peak.PeakTime == nil {
		t.Fatal("expected a peak")
	}
	if want := at(10, 8, 30); !peak.PeakTime.Equal(want) {
		t.Errorf("PeakTime = %v, want %v", peak.PeakTime, want)
	}
	if len(peak.LoanIDs) != 2 {
		t.Errorf("LoanIDs = %v, want 2 entries", peak.LoanIDs)
	}
	if peak.MaxRate != 20 {
		t.Errorf("MaxRate = %v, want 20", peak.MaxRate)
	}
}

func TestPeakOccupancyDegenerateInputs(t *testing.T) {
	now := at(10, 12, 0)
	start, end := at(10, 0, 0), at(10, 23, 59)
	loans := []models.Loan{loan("a", at(10, 8, 0), nil)}

	if p := PeakOccupancy(nil, &end, 7, 18, loans, 10, now); p.PeakTime != nil || p.MaxRate != 0 {
		t.Error("nil start should yield empty result")
	}
	if p := PeakOccupancy(&start, nil, 7, 18, loans, 10, now); p.PeakTime != nil || p.MaxRate != 0 {
		t.Error("nil end should yield empty result")
	}
	if p := PeakOccupancy(&start, &end, 18, 7, loans, 10, now); p.PeakTime != nil || p.MaxRate != 0 {
		t.Error("inverted hours should yield empty result")
	}
	if p := PeakOccupancy(&start, &end, 7, 18, loans, 0, now); p.PeakTime != nil || p.MaxRate != 0 {
		t.Error("zero capacity should yield empty result")
	}
}

func TestReservationCapacity(t *testing.T) {
	day := at(20, 0, 0)
	otherDay := at(21, 0, 0)
	reservations := []models.Reservation{
		{ID: "r1", Date: day, TimeSlot: "2", Quantity: 10},
		{ID: "r2", Date: day, TimeSlot: "2", Quantity: 5},
		{ID: "r3", Date: day, TimeSlot: "3", Quantity: 8},       // other slot
		{ID: "r4", Date: otherDay, TimeSlot: "2", Quantity: 30}, // other day
	}

	if got := ReservationCapacity(day, "2", reservations, 30, ""); got != 15 {
		t.Errorf("remaining = %d, want 15", got)
	}

	// Excluding the reservation under edit: its own quantity plus the
	// remaining-with-exclusion equals the remaining without it.
	withoutR1 := ReservationCapacity(day, "2", reservations, 30, "r1")
	if withoutR1 != 25 {
		t.Errorf("remaining excluding r1 = %d, want 25", withoutR1)
	}
	// Editing r1 down to its current quantity is always valid.
	if 10 > withoutR1 {
		t.Error("keeping current quantity must remain valid")
	}

	if got := ReservationCapacity(day, "6", reservations, 30, ""); got != 30 {
		t.Errorf("untouched slot: remaining = %d, want 30", got)
	}
}
