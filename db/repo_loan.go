package db

import (
	"context"
	"errors"
	"time"

	"chromebook_lending/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDeviceUnavailable = errors.New("device not available for checkout")
	ErrLoanClosed        = errors.New("loan already returned")
)

type CheckoutInput struct {
	DeviceID           string
	BorrowerName       string
	BorrowerEmail      string
	BorrowerType       string
	ExpectedReturnDate *time.Time
	Note               string
}

// CheckoutDevice hands a device out atomically: lock the device row, verify
// it is still available and has no open loan, flip it to "loaned" and insert
// the loan. The partial unique index on open loans backs this up even if a
// racing transaction slips past the checks.
func (r *Repo) CheckoutDevice(ctx context.Context, in CheckoutInput) (*models.Loan, error) {
	var loan *models.Loan
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Device
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&d, "id = ?", in.DeviceID).Error; err != nil {
			return err
		}
		if d.Status != models.DeviceAvailable {
			return ErrDeviceUnavailable
		}
		var n int64
		if err := tx.Model(&models.Loan{}).
			Where("device_id = ? AND return_date IS NULL", in.DeviceID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDeviceUnavailable
		}
		if err := tx.Model(&models.Device{}).
			Where("id = ? AND status = ?", d.ID, models.DeviceAvailable).
			Update("status", models.DeviceLoaned).Error; err != nil {
			return err
		}

		l := &models.Loan{
			ID:                 uuid.NewString(),
			DeviceID:           d.ID,
			BorrowerName:       in.BorrowerName,
			BorrowerEmail:      in.BorrowerEmail,
			BorrowerType:       in.BorrowerType,
			LoanDate:           time.Now().UTC(),
			ExpectedReturnDate: in.ExpectedReturnDate,
			Note:               in.Note,
		}
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		loan = l
		return nil
	})
	return loan, err
}

// ReturnLoan closes a loan and releases the device. Idempotent: returning a
// closed loan is a no-op that reports ErrLoanClosed so callers can tell.
func (r *Repo) ReturnLoan(ctx context.Context, loanID, returnedBy string) (*models.Loan, error) {
	var l models.Loan
	alreadyClosed := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&l, "id = ?", loanID).Error; err != nil {
			return err
		}
		if l.ReturnDate != nil {
			alreadyClosed = true
			return nil
		}
		now := time.Now().UTC()
		l.ReturnDate = &now
		l.ReturnedBy = &returnedBy
		if err := tx.Save(&l).Error; err != nil {
			return err
		}
		// Release the device unless staff moved it to maintenance etc.
		// while it was out.
		return tx.Model(&models.Device{}).
			Where("id = ? AND status = ?", l.DeviceID, models.DeviceLoaned).
			Update("status", models.DeviceAvailable).Error
	})
	if err != nil {
		return nil, err
	}
	if alreadyClosed {
		return &l, ErrLoanClosed
	}
	return &l, nil
}

type LoanFilter struct {
	DeviceID     string
	BorrowerType string
	Status       string // "", "open", "returned"
	From, To     *time.Time
}

func (r *Repo) ListLoans(ctx context.Context, f LoanFilter) ([]models.Loan, error) {
	q := r.DB.WithContext(ctx).Model(&models.Loan{}).Order("loan_date DESC")
	if f.DeviceID != "" {
		q = q.Where("device_id = ?", f.DeviceID)
	}
	if f.BorrowerType != "" {
		q = q.Where("borrower_type = ?", f.BorrowerType)
	}
	switch f.Status {
	case "open":
		q = q.Where("return_date IS NULL")
	case "returned":
		q = q.Where("return_date IS NOT NULL")
	}
	if f.From != nil {
		q = q.Where("loan_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("loan_date <= ?", *f.To)
	}
	var ls []models.Loan
	if err := q.Find(&ls).Error; err != nil {
		return nil, err
	}
	return ls, nil
}

// AllLoans fetches the full history snapshot the availability engine
// consumes. Loan volume is a school fleet's, not a datacenter's.
func (r *Repo) AllLoans(ctx context.Context) ([]models.Loan, error) {
	var ls []models.Loan
	err := r.DB.WithContext(ctx).Order("loan_date ASC").Find(&ls).Error
	return ls, err
}

// LoanRow joins a loan with its device for the admin table.
type LoanRow struct {
	models.Loan
	DeviceTag   string `json:"device_tag"`
	DeviceModel string `json:"device_model"`
	Overdue     bool   `json:"overdue"`
}

func (r *Repo) ListLoansWithDevice(ctx context.Context, f LoanFilter) ([]LoanRow, error) {
	q := r.DB.WithContext(ctx).
		Table(models.LoanTable+" l").
		Select(`l.*, d.device_id AS device_tag, d.model AS device_model,
			CASE WHEN l.return_date IS NULL AND l.expected_return_date IS NOT NULL
			     AND l.expected_return_date < NOW() THEN TRUE ELSE FALSE END AS overdue`).
		Joins("JOIN " + models.DeviceTable + " d ON d.id = l.device_id").
		Order("l.loan_date DESC")
	if f.DeviceID != "" {
		q = q.Where("l.device_id = ?", f.DeviceID)
	}
	if f.BorrowerType != "" {
		q = q.Where("l.borrower_type = ?", f.BorrowerType)
	}
	switch f.Status {
	case "open":
		q = q.Where("l.return_date IS NULL")
	case "returned":
		q = q.Where("l.return_date IS NOT NULL")
	}
	if f.From != nil {
		q = q.Where("l.loan_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("l.loan_date <= ?", *f.To)
	}
	var rows []LoanRow
	err := q.Scan(&rows).Error
	return rows, err
}
