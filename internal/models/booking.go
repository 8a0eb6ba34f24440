package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BookingStatus string

const (
	BookingNew       BookingStatus = "NEW"
	BookingAccepted  BookingStatus = "ACCEPTED"
	BookingStarted   BookingStatus = "STARTED"
	BookingReached   BookingStatus = "REACHED"
	BookingPaid      BookingStatus = "PAID"
	BookingComplete  BookingStatus = "COMPLETE"
	BookingCancelled BookingStatus = "CANCELLED"
)

type PaymentMode string

const (
	PaymentCash   PaymentMode = "cash"
	PaymentWallet PaymentMode = "wallet"
	PaymentCard   PaymentMode = "card"
)

// Booking and Tracking are declared for the schema only; no booking lifecycle
// runs through this service yet.
type Booking struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	DriverID   *uuid.UUID `gorm:"type:uuid;index" json:"driver_id"`
	CarTypeID  *uuid.UUID `gorm:"type:uuid" json:"car_type_id"`
	CarID      *uuid.UUID `gorm:"type:uuid;index" json:"car_id"`

	Status              BookingStatus  `gorm:"type:varchar(20);not null;default:'NEW'" json:"status"`
	PickupLocation      datatypes.JSON `gorm:"not null" json:"pickup_location"`
	DestinationLocation datatypes.JSON `gorm:"not null" json:"destination_location"`
	DropLocation        datatypes.JSON `json:"drop_location"`

	Distance    *float64    `json:"distance"`
	Duration    *int        `json:"duration"`
	Price       float64     `gorm:"not null" json:"price"`
	PaymentMode PaymentMode `gorm:"type:varchar(20);not null;default:'cash'" json:"payment_mode"`

	Rating *float64 `json:"rating"`
	Review *string  `gorm:"type:text" json:"review"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Tracking struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BookingID   *uuid.UUID `gorm:"type:uuid;index" json:"booking_id"`
	Status      string     `gorm:"type:varchar(30);not null" json:"status"`
	Latitude    float64    `gorm:"not null" json:"latitude"`
	Longitude   float64    `gorm:"not null" json:"longitude"`
	TimestampMs int64      `gorm:"not null" json:"timestamp_ms"`
	CreatedAt   time.Time  `json:"created_at"`
}
