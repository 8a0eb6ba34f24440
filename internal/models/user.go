package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeDriver   UserType = "driver"
	UserTypeCompany  UserType = "company"
	UserTypeAdmin    UserType = "admin"
)

// User is the profile row. Credentials live in AuthAccount; the two are
// linked through AuthID so a registration rollback can remove both.
type User struct {
	ID     uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AuthID *uuid.UUID `gorm:"type:uuid;index" json:"auth_id"`

	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string `gorm:"type:varchar(80);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(80);not null" json:"last_name"`
	Mobile    string `gorm:"type:varchar(30);index" json:"mobile"`

	UserType      UserType `gorm:"type:varchar(20);not null;index;default:'customer'" json:"user_type"`
	WalletBalance float64  `gorm:"not null;default:0" json:"wallet_balance"`

	Location     datatypes.JSON `json:"location"`
	ProfileImage string         `gorm:"type:text" json:"profile_image"`
	Rating       float64        `gorm:"not null;default:0" json:"rating"`
	TotalRides   int            `gorm:"not null;default:0" json:"total_rides"`
	IsVerified   bool           `gorm:"not null;default:false" json:"is_verified"`

	// Approval and block are independent gates: an admin profile needs
	// approved && !blocked to enter the dashboard, a driver needs the same
	// to go active.
	Approved bool `gorm:"not null;default:false" json:"approved"`
	Blocked  bool `gorm:"not null;default:false" json:"blocked"`

	ReferralID *string `gorm:"type:varchar(20)" json:"referral_id"`
	City       *string `gorm:"type:varchar(120)" json:"city"`

	DriverActiveStatus bool `gorm:"not null;default:false" json:"driver_active_status"`

	LicenseNumber    *string `gorm:"type:varchar(50)" json:"license_number"`
	LicenseImage     *string `gorm:"type:text" json:"license_image"`
	LicenseImageBack *string `gorm:"type:text" json:"license_image_back"`
	SoatImage        *string `gorm:"type:text" json:"soat_image"`
	CardPropImage    *string `gorm:"type:text" json:"card_prop_image"`
	CardPropImageBk  *string `gorm:"type:text" json:"card_prop_image_bk"`
	VerifyIDImage    *string `gorm:"type:text" json:"verify_id_image"`
	VerifyIDImageBk  *string `gorm:"type:text" json:"verify_id_image_bk"`

	PushToken    *string `gorm:"type:text" json:"push_token"`
	UserPlatform *string `gorm:"type:varchar(30)" json:"user_platform"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
