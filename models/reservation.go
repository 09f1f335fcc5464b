package models

import "time"

const ReservationTable = "cb_reservations"

// TimeSlots is the fixed enumeration of class periods a reservation can
// target. Keys are stored in the time_slot column.
var TimeSlots = []struct {
	Key   string
	Label string
}{
	{"1", "1ª aula (07:30–08:20)"},
	{"2", "2ª aula (08:20–09:10)"},
	{"3", "3ª aula (09:30–10:20)"},
	{"4", "4ª aula (10:20–11:10)"},
	{"5", "5ª aula (11:10–12:00)"},
	{"6", "6ª aula (13:00–13:50)"},
}

// ValidTimeSlot reports whether key names a known class period.
func ValidTimeSlot(key string) bool {
	for _, s := range TimeSlots {
		if s.Key == key {
			return true
		}
	}
	return false
}

// Reservation requests a quantity of devices (not specific units) for one
// class period. The slot capacity bound is enforced transactionally in
// db.CreateReservation/UpdateReservation.
type Reservation struct {
	ID      string `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID string `gorm:"type:uuid;index;not null" json:"owner_id"`

	Date     time.Time `gorm:"type:date;index:idx_cb_reservations_slot;not null" json:"date"`
	TimeSlot string    `gorm:"size:10;index:idx_cb_reservations_slot;not null" json:"time_slot"`
	Quantity int       `gorm:"not null" json:"quantity"`
	Subject  string    `gorm:"size:200" json:"subject"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Reservation) TableName() string { return ReservationTable }
