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
	ErrSlotFull        = errors.New("not enough devices left in this time slot")
	ErrBadQuantity     = errors.New("quantity must be at least 1")
	ErrPastReservation = errors.New("reservation date already passed")
	ErrNotOwner        = errors.New("reservation belongs to another user")
)

// slotUsage sums the quantities already committed to (date, slot), locking
// the matching rows so two concurrent writers serialize. The UI runs the
// same arithmetic through availability.ReservationCapacity on a fetched
// snapshot, but that check is advisory: only this one, inside the
// transaction, is authoritative.
func slotUsage(tx *gorm.DB, date time.Time, slot, excludeID string) (int, error) {
	var rows []models.Reservation
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("date = ? AND time_slot = ?", date.Format("2006-01-02"), slot)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return 0, err
	}
	used := 0
	for _, r := range rows {
		used += r.Quantity
	}
	return used, nil
}

type ReservationInput struct {
	Date     time.Time
	TimeSlot string
	Quantity int
	Subject  string
}

func (r *Repo) CreateReservation(ctx context.Context, ownerID string, in ReservationInput, now time.Time) (*models.Reservation, error) {
	if in.Quantity < 1 {
		return nil, ErrBadQuantity
	}
	if in.Date.Before(startOfDay(now)) {
		return nil, ErrPastReservation
	}
	var res *models.Reservation
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		capacity, err := lendableCountTx(tx)
		if err != nil {
			return err
		}
		used, err := slotUsage(tx, in.Date, in.TimeSlot, "")
		if err != nil {
			return err
		}
		if in.Quantity > capacity-used {
			return ErrSlotFull
		}
		res = &models.Reservation{
			ID:       uuid.NewString(),
			OwnerID:  ownerID,
			Date:     in.Date,
			TimeSlot: in.TimeSlot,
			Quantity: in.Quantity,
			Subject:  in.Subject,
		}
		return tx.Create(res).Error
	})
	return res, err
}

// UpdateReservation edits quantity/subject/slot while the reservation is
// still in the future, rechecking the capacity bound with the reservation
// itself excluded from the sum.
func (r *Repo) UpdateReservation(ctx context.Context, id, actorID string, admin bool, in ReservationInput, now time.Time) (*models.Reservation, error) {
	if in.Quantity < 1 {
		return nil, ErrBadQuantity
	}
	var res models.Reservation
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&res, "id = ?", id).Error; err != nil {
			return err
		}
		if !admin && res.OwnerID != actorID {
			return ErrNotOwner
		}
		if res.Date.Before(startOfDay(now)) || in.Date.Before(startOfDay(now)) {
			return ErrPastReservation
		}
		capacity, err := lendableCountTx(tx)
		if err != nil {
			return err
		}
		used, err := slotUsage(tx, in.Date, in.TimeSlot, res.ID)
		if err != nil {
			return err
		}
		if in.Quantity > capacity-used {
			return ErrSlotFull
		}
		res.Date = in.Date
		res.TimeSlot = in.TimeSlot
		res.Quantity = in.Quantity
		res.Subject = in.Subject
		return tx.Save(&res).Error
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *Repo) DeleteReservation(ctx context.Context, id, actorID string, admin bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res models.Reservation
		if err := tx.First(&res, "id = ?", id).Error; err != nil {
			return err
		}
		if !admin && res.OwnerID != actorID {
			return ErrNotOwner
		}
		return tx.Delete(&res).Error
	})
}

func (r *Repo) ListReservations(ctx context.Context, from, to *time.Time, ownerID string) ([]models.Reservation, error) {
	q := r.DB.WithContext(ctx).Model(&models.Reservation{}).
		Order("date ASC, time_slot ASC")
	if from != nil {
		q = q.Where("date >= ?", from.Format("2006-01-02"))
	}
	if to != nil {
		q = q.Where("date <= ?", to.Format("2006-01-02"))
	}
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	var rs []models.Reservation
	err := q.Find(&rs).Error
	return rs, err
}

// ReservationsOn fetches the snapshot for one day, feeding the advisory
// availability check.
func (r *Repo) ReservationsOn(ctx context.Context, date time.Time) ([]models.Reservation, error) {
	var rs []models.Reservation
	err := r.DB.WithContext(ctx).
		Where("date = ?", date.Format("2006-01-02")).
		Find(&rs).Error
	return rs, err
}

func lendableCountTx(tx *gorm.DB) (int, error) {
	var n int64
	err := tx.Model(&models.Device{}).
		Where("status NOT IN ?", []string{models.DeviceFixedLocation, models.DeviceDecommissioned}).
		Count(&n).Error
	return int(n), err
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
