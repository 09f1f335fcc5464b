package models

import "time"

// Activity actions recorded for the dashboard feed.
const (
	ActionCheckout           = "checkout"
	ActionReturn             = "return"
	ActionReservationCreated = "reservation_created"
	ActionReservationUpdated = "reservation_updated"
	ActionReservationDeleted = "reservation_deleted"
	ActionAuditStarted       = "audit_started"
	ActionAuditClosed        = "audit_closed"
)

// ActivityLog is an append-only record of who did what. Rows are written
// best-effort after the main transaction commits; a failed log write never
// fails the operation it describes.
type ActivityLog struct {
	ID            string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Action        string    `gorm:"size:40;index;not null" json:"action"`
	ActorID       string    `gorm:"type:uuid" json:"actor_id"`
	ActorUsername string    `json:"actor_username"`
	TargetID      *string   `gorm:"type:uuid" json:"target_id,omitempty"`
	Detail        *string   `json:"detail,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "cb_activity_log" }
