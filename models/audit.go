package models

import "time"

const (
	AuditTable     = "cb_inventory_audits"
	AuditItemTable = "cb_audit_items"
)

const (
	AuditActive    = "active"
	AuditCompleted = "completed"
	AuditCancelled = "cancelled"
)

const (
	ScanMethodQR     = "qr"
	ScanMethodManual = "manual"
)

// InventoryAudit is one bounded counting session. TotalExpected snapshots
// the device count at start so the completion rate is stable even if
// devices are registered mid-audit. At most one audit may be active at a
// time (partial unique index in db.Migrate).
type InventoryAudit struct {
	ID            string     `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string     `gorm:"size:200;not null" json:"name"`
	Status        string     `gorm:"size:20;not null;default:'active'" json:"status"`
	StartedAt     time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	TotalExpected int        `gorm:"not null" json:"total_expected"`
	TotalCounted  int        `gorm:"not null;default:0" json:"total_counted"`
	StartedBy     string     `gorm:"type:uuid" json:"started_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InventoryAudit) TableName() string { return AuditTable }

// AuditItem records one counted device within an audit. The expected
// location/condition are snapshotted from the device at scan time, so a
// later device edit cannot rewrite history. Found values are what the
// counter actually observed; empty string means not reported.
type AuditItem struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	AuditID  string `gorm:"type:uuid;index:idx_cb_audit_items_device,unique;not null" json:"audit_id"`
	DeviceID string `gorm:"type:uuid;index:idx_cb_audit_items_device,unique;not null" json:"device_id"`

	ScanMethod string    `gorm:"size:10;not null" json:"scan_method"`
	CountedAt  time.Time `gorm:"not null" json:"counted_at"`
	CountedBy  string    `gorm:"type:uuid" json:"counted_by"`

	ExpectedLocation  string `gorm:"size:120" json:"expected_location"`
	FoundLocation     string `gorm:"size:120" json:"location_found"`
	ExpectedCondition string `gorm:"size:60" json:"expected_condition"`
	FoundCondition    string `gorm:"size:60" json:"condition_found"`

	CreatedAt time.Time `json:"created_at"`
}

func (AuditItem) TableName() string { return AuditItemTable }
