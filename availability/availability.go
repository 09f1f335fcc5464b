// Package availability answers "how many chromebooks are free" questions
// over loan and reservation snapshots. Every function here is pure: the
// caller fetches the snapshot from db and passes the clock in explicitly,
// so results are deterministic and safe to compute concurrently. All checks
// against it are advisory; the authoritative recheck happens inside the
// write transactions in db.
package availability

import (
	"time"

	"chromebook_lending/models"
)

// Occupancy describes concurrent loan usage at one instant.
type Occupancy struct {
	Count   int      `json:"count"`
	LoanIDs []string `json:"loan_ids"`
	Rate    float64  `json:"rate"` // percent, 0..100
}

// Peak is the highest concurrent usage found over a sampled range.
// PeakTime is nil when the range had no active loans at any sample point.
type Peak struct {
	MaxRate  float64    `json:"max_occupancy_rate"`
	PeakTime *time.Time `json:"peak_time"`
	LoanIDs  []string   `json:"peak_loan_ids"`
}

// activeAt reports whether the loan occupies a device at t. An open loan
// (no return date) is treated as running until now and never beyond it, so
// retrospective queries are not polluted by loans that started after the
// instant being asked about.
func activeAt(l models.Loan, t, now time.Time) bool {
	if t.Before(l.LoanDate) {
		return false
	}
	end := now
	if l.ReturnDate != nil {
		end = *l.ReturnDate
	}
	return !t.After(end)
}

func rate(count, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	r := float64(count) / float64(capacity) * 100
	if r > 100 {
		r = 100
	}
	return r
}

// OccupancyAt counts the loans concurrently active at checkTime.
func OccupancyAt(checkTime, now time.Time, loans []models.Loan, capacity int) Occupancy {
	var ids []string
	for _, l := range loans {
		if activeAt(l, checkTime, now) {
			ids = append(ids, l.ID)
		}
	}
	return Occupancy{Count: len(ids), LoanIDs: ids, Rate: rate(len(ids), capacity)}
}

// PeakOccupancy samples every day in [start, end] at h:30 for each work
// hour h in [workStart, workEnd] and returns the first sample with the
// highest concurrent count. The half-hour offset avoids ties at exact
// hand-out/return boundaries; it also means a spike contained entirely
// between two samples goes unseen, which is a known approximation.
func PeakOccupancy(start, end *time.Time, workStart, workEnd int, loans []models.Loan, capacity int, now time.Time) Peak {
	if start == nil || end == nil || capacity <= 0 || workStart > workEnd {
		return Peak{LoanIDs: []string{}}
	}

	peak := Peak{LoanIDs: []string{}}
	maxCount := 0

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for !day.After(*end) {
		for h := workStart; h <= workEnd; h++ {
			cp := time.Date(day.Year(), day.Month(), day.Day(), h, 30, 0, 0, day.Location())
			if cp.Before(*start) || cp.After(*end) {
				continue
			}
			occ := OccupancyAt(cp, now, loans, capacity)
			if occ.Count > maxCount {
				maxCount = occ.Count
				t := cp
				peak = Peak{MaxRate: occ.Rate, PeakTime: &t, LoanIDs: occ.LoanIDs}
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return peak
}

// ReservationCapacity returns how many devices remain bookable for the
// given date and class period. excludeID skips one reservation so an edit
// form can compute the maximum quantity that reservation itself may take;
// keeping its current quantity is then always valid.
func ReservationCapacity(date time.Time, timeSlot string, reservations []models.Reservation, totalCapacity int, excludeID string) int {
	key := date.Format("2006-01-02")
	used := 0
	for _, r := range reservations {
		if r.ID == excludeID {
			continue
		}
		if r.TimeSlot == timeSlot && r.Date.Format("2006-01-02") == key {
			used += r.Quantity
		}
	}
	return totalCapacity - used
}
