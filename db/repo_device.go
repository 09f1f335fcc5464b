package db

import (
	"context"
	"errors"
	"strings"

	"chromebook_lending/models"
)

var ErrInvalidStatus = errors.New("invalid device status")

// Devices

func (r *Repo) CreateDevice(ctx context.Context, d *models.Device) error {
	return r.DB.WithContext(ctx).Create(d).Error
}

func (r *Repo) FindDeviceByID(ctx context.Context, id string) (*models.Device, error) {
	var d models.Device
	if err := r.DB.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// FindDeviceByTag looks a device up by its human-assigned tag, which is
// what QR labels encode.
func (r *Repo) FindDeviceByTag(ctx context.Context, tag string) (*models.Device, error) {
	var d models.Device
	if err := r.DB.WithContext(ctx).First(&d, "device_id = ?", tag).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repo) ListDevices(ctx context.Context, status, q string) ([]models.Device, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Device{}).Order("device_id ASC")
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where(
			"LOWER(device_id) LIKE ? OR LOWER(serial) LIKE ? OR LOWER(model) LIKE ? OR LOWER(property_tag) LIKE ?",
			like, like, like, like,
		)
	}
	var devices []models.Device
	err := tx.Find(&devices).Error
	return devices, err
}

// SetDeviceStatus applies a staff-driven status transition. "loaned" is
// reserved for the loan transactions and rejected here.
func (r *Repo) SetDeviceStatus(ctx context.Context, id, status string) (*models.Device, error) {
	switch status {
	case models.DeviceAvailable, models.DeviceMaintenance,
		models.DeviceFixedLocation, models.DeviceDecommissioned:
	default:
		return nil, ErrInvalidStatus
	}
	if err := r.DB.WithContext(ctx).Model(&models.Device{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return nil, err
	}
	return r.FindDeviceByID(ctx, id)
}

func (r *Repo) UpdateDevice(ctx context.Context, id string, fields map[string]any) (*models.Device, error) {
	if err := r.DB.WithContext(ctx).Model(&models.Device{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return nil, err
	}
	return r.FindDeviceByID(ctx, id)
}

// LendableCount is the capacity input for the availability engine: every
// device except fixed-location and decommissioned units.
func (r *Repo) LendableCount(ctx context.Context) (int, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Device{}).
		Where("status NOT IN ?", []string{models.DeviceFixedLocation, models.DeviceDecommissioned}).
		Count(&n).Error
	return int(n), err
}

func (r *Repo) CountDevices(ctx context.Context) (int, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Device{}).Count(&n).Error
	return int(n), err
}
