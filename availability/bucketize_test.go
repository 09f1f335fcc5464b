package availability

import (
	"testing"

	"chromebook_lending/models"
)

func TestBucketizeHourlySingleDay(t *testing.T) {
	now := at(11, 12, 0)
	loans := []models.Loan{
		loan("a", at(10, 8, 10), ptr(at(10, 9, 50))),
		loan("b", at(10, 8, 40), ptr(at(10, 11, 5))),
		loan("c", at(10, 14, 0), nil),
	}
	out := Bucketize(loans, at(10, 0, 0), at(10, 23, 59), 7, 18, 10, now)

	if len(out) != 12 {
		t.Fatalf("bucket count = %d, want 12 (one per work hour)", len(out))
	}
	if out[0].Label != "10/03 07h" {
		t.Errorf("first label = %q", out[0].Label)
	}

	totalLoans, totalReturns := 0, 0
	for _, b := range out {
		totalLoans += b.Loans
		totalReturns += b.Returns
	}
	if totalLoans != 3 {
		t.Errorf("sum of loans = %d, want 3", totalLoans)
	}
	if totalReturns != 2 {
		t.Errorf("sum of returns = %d, want 2", totalReturns)
	}

	// 08h bucket: both morning loans started there, but only the first is
	// already out at the 08:30 sample.
	h8 := out[1]
	if h8.Loans != 2 {
		t.Errorf("08h loans = %d, want 2", h8.Loans)
	}
	if h8.Rate != 10 {
		t.Errorf("08h rate = %v, want 10", h8.Rate)
	}
	// By 09:30 both are out.
	if h9 := out[2]; h9.Rate != 20 {
		t.Errorf("09h rate = %v, want 20", h9.Rate)
	}
}

func TestBucketizeDailyLongRange(t *testing.T) {
	now := at(15, 18, 0)
	loans := []models.Loan{
		loan("a", at(2, 8, 0), ptr(at(2, 16, 0))),
		loan("b", at(2, 9, 0), ptr(at(4, 10, 0))), // returned two days later
		loan("c", at(9, 8, 0), nil),
	}
	out := Bucketize(loans, at(1, 0, 0), at(10, 23, 59), 7, 18, 10, now)

	if len(out) != 10 {
		t.Fatalf("bucket count = %d, want 10 daily buckets", len(out))
	}
	if out[0].Label != "01/03" {
		t.Errorf("first label = %q", out[0].Label)
	}

	day2 := out[1]
	if day2.Loans != 2 || day2.Returns != 1 {
		t.Errorf("day 2 = %d loans / %d returns, want 2/1", day2.Loans, day2.Returns)
	}
	// Two loans ran concurrently through day 2's work hours.
	if day2.Rate != 20 {
		t.Errorf("day 2 peak rate = %v, want 20", day2.Rate)
	}

	day4 := out[3]
	if day4.Loans != 0 || day4.Returns != 1 {
		t.Errorf("day 4 = %d loans / %d returns, want 0/1", day4.Loans, day4.Returns)
	}
}

// The hourly chart is a work-hours view: a loan handed out before workStart
// or after workEnd belongs to no hourly bucket. The daily view counts the
// whole day.
func TestBucketizeOutOfHoursStarts(t *testing.T) {
	now := at(15, 18, 0)
	loans := []models.Loan{
		loan("early", at(10, 5, 0), ptr(at(10, 6, 30))),
		loan("late", at(10, 20, 0), ptr(at(10, 21, 0))),
		loan("in-hours", at(10, 9, 15), ptr(at(10, 10, 0))),
	}

	hourly := Bucketize(loans, at(10, 0, 0), at(10, 23, 59), 7, 18, 10, now)
	totalLoans := 0
	for _, b := range hourly {
		totalLoans += b.Loans
	}
	if totalLoans != 1 {
		t.Errorf("hourly sum of loans = %d, want 1 (only the work-hour start)", totalLoans)
	}

	daily := Bucketize(loans, at(9, 0, 0), at(12, 23, 59), 7, 18, 10, now)
	if len(daily) != 4 {
		t.Fatalf("bucket count = %d, want 4", len(daily))
	}
	if day := daily[1]; day.Loans != 3 || day.Returns != 3 {
		t.Errorf("daily bucket = %d loans / %d returns, want all 3 of each", day.Loans, day.Returns)
	}
}

func TestBucketizeDegenerateRange(t *testing.T) {
	now := at(10, 12, 0)
	if out := Bucketize(nil, at(10, 0, 0), at(9, 0, 0), 7, 18, 10, now); len(out) != 0 {
		t.Errorf("inverted range produced %d buckets", len(out))
	}
	if out := Bucketize(nil, at(10, 0, 0), at(10, 23, 0), 18, 7, 10, now); len(out) != 0 {
		t.Errorf("inverted work hours produced %d buckets", len(out))
	}
}

func TestBucketizeEmptyLoansStillCoversRange(t *testing.T) {
	now := at(10, 12, 0)
	out := Bucketize(nil, at(10, 0, 0), at(10, 23, 59), 7, 18, 10, now)
	if len(out) != 12 {
		t.Fatalf("bucket count = %d, want 12", len(out))
	}
	for _, b := range out {
		if b.Loans != 0 || b.Returns != 0 || b.Rate != 0 {
			t.Errorf("bucket %s not empty: %+v", b.Label, b)
		}
	}
}
