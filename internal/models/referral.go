package models

import (
	"time"

	"github.com/google/uuid"
)

// ReferralCode: one active code per driver. TotalReferrals is bumped with a
// read-then-write on each successful referral.
type ReferralCode struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DriverID       uuid.UUID `gorm:"type:uuid;index;not null" json:"driver_id"`
	ReferralCode   string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"referral_code"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	TotalReferrals int       `gorm:"not null;default:0" json:"total_referrals"`
	CreatedAt      time.Time `json:"created_at"`
}

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralCompleted ReferralStatus = "completed"
	ReferralCancelled ReferralStatus = "cancelled"
)

type Referral struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReferralCodeID   uuid.UUID      `gorm:"type:uuid;index;not null" json:"referral_code_id"`
	ReferralCode     string         `gorm:"type:varchar(20);not null" json:"referral_code"`
	ReferrerID       uuid.UUID      `gorm:"type:uuid;index;not null" json:"referrer_id"`
	ReferredDriverID uuid.UUID      `gorm:"type:uuid;index;not null" json:"referred_driver_id"`
	Status           ReferralStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	RewardClaimed    bool           `gorm:"not null;default:false" json:"reward_claimed"`
	ReferredAt       time.Time      `gorm:"autoCreateTime" json:"referred_at"`
}
