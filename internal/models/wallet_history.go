package models

import (
	"time"

	"github.com/google/uuid"
)

type WalletTrxType string

const (
	WalletTrxCredit WalletTrxType = "credit"
	WalletTrxDebit  WalletTrxType = "debit"
)

// WalletHistory is the ledger behind wallet_balance mutations.
type WalletHistory struct {
	ID          uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      *uuid.UUID    `gorm:"type:uuid;index" json:"user_id"`
	Type        WalletTrxType `gorm:"type:varchar(20);not null" json:"type"`
	Amount      float64       `gorm:"not null" json:"amount"`
	Balance     float64       `gorm:"not null" json:"balance"`
	Description string        `gorm:"type:text;not null" json:"description"`
	BookingID   *uuid.UUID    `gorm:"type:uuid;index" json:"booking_id"`
	CreatedAt   time.Time     `json:"created_at"`
}
