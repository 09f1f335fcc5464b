package models

import "time"

const DeviceTable = "cb_devices"

// Device status lifecycle. "loaned" is only ever set by the loan
// transactions in db; the rest are set by staff. Devices are never
// hard-deleted, decommissioned is terminal for lending.
const (
	DeviceAvailable      = "available"
	DeviceLoaned         = "loaned"
	DeviceMaintenance    = "maintenance"
	DeviceFixedLocation  = "fixed-location"
	DeviceDecommissioned = "decommissioned"
)

type Device struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID     string `gorm:"size:60;uniqueIndex;not null" json:"device_id"` // human-assigned tag, e.g. CB-042
	Model        string `gorm:"size:120" json:"model"`
	Manufacturer string `gorm:"size:120" json:"manufacturer"`
	Serial       string `gorm:"size:120" json:"serial"`
	PropertyTag  string `gorm:"size:60" json:"property_tag"`
	Status       string `gorm:"size:20;not null;default:'available';index" json:"status"`
	Location     string `gorm:"size:120" json:"location"`
	Condition    string `gorm:"size:60" json:"condition"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Device) TableName() string { return DeviceTable }

// Lendable reports whether the device counts toward loan capacity.
// Fixed-location and decommissioned units are permanently excluded.
func (d Device) Lendable() bool {
	return d.Status != DeviceFixedLocation && d.Status != DeviceDecommissioned
}
