package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthAccount holds the login credentials, kept apart from the User profile
// the same way the hosted auth subsystem kept them apart from the users table.
type AuthAccount struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
