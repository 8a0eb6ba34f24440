package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Notification struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	Title     string         `gorm:"type:varchar(200);not null" json:"title"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Type      string         `gorm:"type:varchar(40);not null;default:'general'" json:"type"`
	IsRead    bool           `gorm:"not null;default:false" json:"is_read"`
	Data      datatypes.JSON `json:"data"`
	BookingID *uuid.UUID     `gorm:"type:uuid;index" json:"booking_id"`
	CreatedAt time.Time      `json:"created_at"`
}
