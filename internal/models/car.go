package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type FuelType string

const (
	FuelGasolina  FuelType = "gasolina"
	FuelDiesel    FuelType = "diesel"
	FuelElectrico FuelType = "electrico"
	FuelHibrido   FuelType = "hibrido"
)

type Transmission string

const (
	TransmissionManual     Transmission = "manual"
	TransmissionAutomatico Transmission = "automatico"
)

type ServiceType string

const (
	ServiceParticular ServiceType = "particular"
	ServiceEspecial   ServiceType = "servicio_especial"
	ServiceTaxiPlus   ServiceType = "taxi_plus"
)

// Car is owned by at most one driver; DriverID is nullable so a vehicle can
// sit unassigned. Plate uniqueness is checked at the service layer before
// insert, like the rest of the pre-insert existence checks.
type Car struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DriverID *uuid.UUID `gorm:"type:uuid;index" json:"driver_id"`

	Make  string  `gorm:"type:varchar(80);not null" json:"make"`
	Model string  `gorm:"type:varchar(80);not null" json:"model"`
	Year  *int    `json:"year"`
	Color *string `gorm:"type:varchar(40)" json:"color"`
	Plate string  `gorm:"type:varchar(20);uniqueIndex;not null" json:"plate"`

	CarImage *string `gorm:"type:text" json:"car_image"`

	FuelType     FuelType     `gorm:"type:varchar(20);not null;default:'gasolina'" json:"fuel_type"`
	Transmission Transmission `gorm:"type:varchar(20);not null;default:'manual'" json:"transmission"`
	Capacity     int          `gorm:"not null;default:4" json:"capacity"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`

	ServiceType *ServiceType `gorm:"type:varchar(30)" json:"service_type"`

	// Free-form blob; company data from registration step 4 is merged here
	// because no dedicated column exists for it.
	Features datatypes.JSON `json:"features"`

	SoatImage               *string    `gorm:"type:text" json:"soat_image"`
	SoatExpiryDate          *time.Time `json:"soat_expiry_date"`
	CardPropImage           *string    `gorm:"type:text" json:"card_prop_image"`
	CardPropImageBack       *string    `gorm:"type:text" json:"card_prop_image_back"`
	TecnomecanicaImage      *string    `gorm:"type:text" json:"tecnomecanica_image"`
	TecnomecanicaExpiryDate *time.Time `json:"tecnomecanica_expiry_date"`
	CamaraComercioImage     *string    `gorm:"type:text" json:"camara_comercio_image"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
