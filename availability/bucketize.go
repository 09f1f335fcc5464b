package availability

import (
	"time"

	"chromebook_lending/models"
)

// Bucket is one point of the usage chart. JSON keys are the Portuguese
// series names the frontend charts were built around.
type Bucket struct {
	Label   string    `json:"periodo"`
	Start   time.Time `json:"inicio"`
	Loans   int       `json:"emprestimos"` // loans starting in the bucket
	Returns int       `json:"devolucoes"`
	Rate    float64   `json:"ocupacao"` // percent
}

// Bucketize aggregates loan history for charting. Ranges spanning at most
// two days get one bucket per work hour (rate sampled at h:30); longer
// ranges get one bucket per calendar day carrying that day's peak work-hour
// rate rather than an average. The hourly view covers work hours only, so a
// loan starting outside [workStart, workEnd] lands in no hourly bucket;
// daily buckets count the whole day. Buckets come back in ascending order
// and the whole thing is a pure function of its inputs.
func Bucketize(loans []models.Loan, start, end time.Time, workStart, workEnd int, capacity int, now time.Time) []Bucket {
	if end.Before(start) || workStart > workEnd {
		return []Bucket{}
	}
	if end.Sub(start).Hours() <= 48 {
		return hourlyBuckets(loans, start, end, workStart, workEnd, capacity, now)
	}
	return dailyBuckets(loans, start, end, workStart, workEnd, capacity, now)
}

func hourlyBuckets(loans []models.Loan, start, end time.Time, workStart, workEnd, capacity int, now time.Time) []Bucket {
	var out []Bucket
	day := startOfDay(start)
	for !day.After(end) {
		for h := workStart; h <= workEnd; h++ {
			from := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, day.Location())
			to := from.Add(time.Hour)

			b := Bucket{Label: from.Format("02/01 15h"), Start: from}
			for _, l := range loans {
				if l.LoanDate.Before(from) || !l.LoanDate.Before(to) {
					continue
				}
				b.Loans++
				if l.ReturnDate != nil && !l.ReturnDate.After(now) {
					b.Returns++
				}
			}
			b.Rate = OccupancyAt(from.Add(30*time.Minute), now, loans, capacity).Rate
			out = append(out, b)
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

func dailyBuckets(loans []models.Loan, start, end time.Time, workStart, workEnd, capacity int, now time.Time) []Bucket {
	var out []Bucket
	day := startOfDay(start)
	for !day.After(end) {
		next := day.AddDate(0, 0, 1)

		b := Bucket{Label: day.Format("02/01"), Start: day}
		for _, l := range loans {
			if !l.LoanDate.Before(day) && l.LoanDate.Before(next) {
				b.Loans++
			}
			if l.ReturnDate != nil && !l.ReturnDate.Before(day) && l.ReturnDate.Before(next) {
				b.Returns++
			}
		}
		// Daily rate is the day's work-hour peak, not an average.
		for h := workStart; h <= workEnd; h++ {
			cp := time.Date(day.Year(), day.Month(), day.Day(), h, 30, 0, 0, day.Location())
			if r := OccupancyAt(cp, now, loans, capacity).Rate; r > b.Rate {
				b.Rate = r
			}
		}
		out = append(out, b)
		day = next
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
