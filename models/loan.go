package models

import "time"

const LoanTable = "cb_loans"

// Borrower types accepted at checkout.
const (
	BorrowerStudent = "student"
	BorrowerTeacher = "teacher"
	BorrowerStaff   = "staff"
)

// Loan binds exactly one Device to a borrower for a period of time.
// ReturnDate stays nil while the loan is open; the partial unique index
// created in db.Migrate guarantees at most one open loan per device.
type Loan struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID string `gorm:"type:uuid;index;not null" json:"device_id"`

	BorrowerName  string `gorm:"size:200;not null" json:"borrower_name"`
	BorrowerEmail string `gorm:"size:255" json:"borrower_email"`
	BorrowerType  string `gorm:"size:20;not null;default:'student'" json:"borrower_type"`

	LoanDate           time.Time  `gorm:"index;not null" json:"loan_date"`
	ExpectedReturnDate *time.Time `json:"expected_return_date,omitempty"`
	ReturnDate         *time.Time `gorm:"index" json:"return_date,omitempty"`
	ReturnedBy         *string    `gorm:"type:uuid" json:"returned_by,omitempty"`

	Note      string    `gorm:"size:255" json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Loan) TableName() string { return LoanTable }

// Open reports whether the device is still out.
func (l Loan) Open() bool { return l.ReturnDate == nil }
