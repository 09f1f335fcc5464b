package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"chromebook_lending/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAuditActiveExists = errors.New("an audit is already active")
	ErrAuditNotActive    = errors.New("audit is not active")
	ErrDuplicateCount    = errors.New("device already counted in this audit")
)

// StartAudit opens a counting session, snapshotting the current device
// count as total_expected. The partial unique index on active audits backs
// up the in-transaction check.
func (r *Repo) StartAudit(ctx context.Context, name, startedBy string) (*models.InventoryAudit, error) {
	var audit *models.InventoryAudit
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.InventoryAudit{}).
			Where("status = ?", models.AuditActive).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAuditActiveExists
		}
		var expected int64
		if err := tx.Model(&models.Device{}).Count(&expected).Error; err != nil {
			return err
		}
		audit = &models.InventoryAudit{
			ID:            uuid.NewString(),
			Name:          name,
			Status:        models.AuditActive,
			StartedAt:     time.Now().UTC(),
			TotalExpected: int(expected),
			StartedBy:     startedBy,
		}
		if err := tx.Create(audit).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAuditActiveExists
			}
			return err
		}
		return nil
	})
	return audit, err
}

func (r *Repo) FindAuditByID(ctx context.Context, id string) (*models.InventoryAudit, error) {
	var a models.InventoryAudit
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) ActiveAudit(ctx context.Context) (*models.InventoryAudit, error) {
	var a models.InventoryAudit
	if err := r.DB.WithContext(ctx).
		Where("status = ?", models.AuditActive).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) ListAudits(ctx context.Context) ([]models.InventoryAudit, error) {
	var as []models.InventoryAudit
	err := r.DB.WithContext(ctx).Order("started_at DESC").Find(&as).Error
	return as, err
}

type CountInput struct {
	DeviceID       string
	ScanMethod     string
	FoundLocation  string
	FoundCondition string
	CountedBy      string
}

// CountDevice records one observation: snapshots the device's expected
// location/condition onto the item, rejects duplicates within the audit via
// the composite unique index, and bumps the running total.
func (r *Repo) CountDevice(ctx context.Context, auditID string, in CountInput) (*models.AuditItem, error) {
	var item *models.AuditItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.InventoryAudit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&a, "id = ?", auditID).Error; err != nil {
			return err
		}
		if a.Status != models.AuditActive {
			return ErrAuditNotActive
		}
		var d models.Device
		if err := tx.First(&d, "id = ?", in.DeviceID).Error; err != nil {
			return err
		}

		item = &models.AuditItem{
			ID:                uuid.NewString(),
			AuditID:           a.ID,
			DeviceID:          d.ID,
			ScanMethod:        in.ScanMethod,
			CountedAt:         time.Now().UTC(),
			CountedBy:         in.CountedBy,
			ExpectedLocation:  d.Location,
			FoundLocation:     in.FoundLocation,
			ExpectedCondition: d.Condition,
			FoundCondition:    in.FoundCondition,
		}
		if err := tx.Create(item).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateCount
			}
			return err
		}
		return tx.Model(&models.InventoryAudit{}).
			Where("id = ?", a.ID).
			Update("total_counted", gorm.Expr("total_counted + 1")).Error
	})
	return item, err
}

func (r *Repo) AuditItems(ctx context.Context, auditID string) ([]models.AuditItem, error) {
	var items []models.AuditItem
	err := r.DB.WithContext(ctx).
		Where("audit_id = ?", auditID).
		Order("counted_at ASC").
		Find(&items).Error
	return items, err
}

// CloseAudit moves an active audit to completed or cancelled.
func (r *Repo) CloseAudit(ctx context.Context, id, status string) (*models.InventoryAudit, error) {
	if status != models.AuditCompleted && status != models.AuditCancelled {
		return nil, ErrInvalidStatus
	}
	var a models.InventoryAudit
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&a, "id = ?", id).Error; err != nil {
			return err
		}
		if a.Status != models.AuditActive {
			return ErrAuditNotActive
		}
		now := time.Now().UTC()
		a.Status = status
		a.CompletedAt = &now
		return tx.Save(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	// pgx surfaces SQLSTATE 23505 in the message; gorm has no portable
	// sentinel for it.
	return err != nil && strings.Contains(err.Error(), "23505")
}
