package models

import (
	"time"
)

// User is a staff member (professor or admin) who signs in with a passkey.
// The UUID doubles as the WebAuthn userHandle (stored as string, converted
// to bytes where the library needs it).
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Username    string `gorm:"uniqueIndex;size:255;not null" json:"username"` // login email
	DisplayName string `gorm:"size:255;not null" json:"display_name"`
	IsAdmin     bool   `gorm:"not null;default:false" json:"is_admin"`

	LastLoginAt *time.Time `gorm:"index" json:"last_login_at,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"last_seen_at,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"login_count"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Credentials []Credential
}

func (User) TableName() string { return "cb_users" }

// Credential archives one registered passkey. CredentialID/PublicKey/AAGUID
// are binary, stored as bytea on Postgres.
type Credential struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"type:uuid;index" json:"user_id"`
	CredentialID    []byte    `gorm:"uniqueIndex" json:"credential_id"`
	PublicKey       []byte    `json:"public_key"`
	AttestationType string    `gorm:"size:64" json:"attestation_type"`
	AAGUID          []byte    `gorm:"type:bytea" json:"aaguid"`
	SignCount       uint32    `json:"sign_count"`
	CloneWarning    bool      `json:"clone_warning"`
	BackupEligible  bool      `json:"backup_eligible"`
	BackupState     bool      `json:"backup_state"`
	TransportsJSON  string    `gorm:"type:text" json:"transports_json"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	LastUsedAt *time.Time `gorm:"index" json:"last_used_at,omitempty"`
}
