package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/pagination"
)

// DriverFilters is a conjunction: every set field must match. Search is a
// single free-text term ILIKE-matched across name, email and mobile.
type DriverFilters struct {
	Approved *bool
	Blocked  *bool
	City     string
	Search   string
}

type DriverStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Blocked  int64 `json:"blocked"`
	Active   int64 `json:"active"`
}

type IUserStorage interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByAuthID(ctx context.Context, authID uuid.UUID) (*models.User, error)
	GetByMobile(ctx context.Context, mobile string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.User, error)
	HardDelete(ctx context.Context, id uuid.UUID) error
	ListDrivers(ctx context.Context, filters DriverFilters, p pagination.Params) ([]models.User, int64, error)
	DriverStats(ctx context.Context) (*DriverStats, error)
	DriverCities(ctx context.Context) ([]string, error)
}

type CarFilters struct {
	DriverID    *uuid.UUID
	IsActive    *bool
	ServiceType string
	Search      string
}

type CarStats struct {
	Total         int64                        `json:"total"`
	Active        int64                        `json:"active"`
	ByServiceType map[models.ServiceType]int64 `json:"by_service_type"`
}

type ICarStorage interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error)
	GetByDriver(ctx context.Context, driverID uuid.UUID) ([]models.Car, error)
	GetByPlate(ctx context.Context, plate string) (*models.Car, error)
	List(ctx context.Context, filters CarFilters, p pagination.Params) ([]models.Car, int64, error)
	Create(ctx context.Context, car *models.Car) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Car, error)
	HardDelete(ctx context.Context, id uuid.UUID) error
	ExpiringDocuments(ctx context.Context, before time.Time) ([]models.Car, error)
	Stats(ctx context.Context) (*CarStats, error)
}

type ReferralFilters struct {
	Status        string
	RewardClaimed *bool
}

type ReferralStats struct {
	Total          int64 `json:"total"`
	Pending        int64 `json:"pending"`
	Completed      int64 `json:"completed"`
	Cancelled      int64 `json:"cancelled"`
	RewardsClaimed int64 `json:"rewards_claimed"`
}

type IReferralStorage interface {
	GetCodeByDriver(ctx context.Context, driverID uuid.UUID) (*models.ReferralCode, error)
	GetActiveCode(ctx context.Context, code string) (*models.ReferralCode, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	CreateCode(ctx context.Context, rc *models.ReferralCode) error
	UpdateCode(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	GetReferralByID(ctx context.Context, id uuid.UUID) (*models.Referral, error)
	GetByReferredDriver(ctx context.Context, referredDriverID uuid.UUID) (*models.Referral, error)
	CreateReferral(ctx context.Context, r *models.Referral) error
	UpdateReferral(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Referral, error)
	ListByReferrer(ctx context.Context, referrerID uuid.UUID, filters ReferralFilters, p pagination.Params) ([]models.Referral, int64, error)
	StatsByReferrer(ctx context.Context, referrerID uuid.UUID) (*ReferralStats, error)
}

type IAuthStorage interface {
	GetByEmail(ctx context.Context, email string) (*models.AuthAccount, error)
	Create(ctx context.Context, acc *models.AuthAccount) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type IWalletStorage interface {
	CreateEntry(ctx context.Context, entry *models.WalletHistory) error
	ListByUser(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]models.WalletHistory, int64, error)
}

type INotificationStorage interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type IStorage interface {
	User() IUserStorage
	Car() ICarStorage
	Referral() IReferralStorage
	Auth() IAuthStorage
	Wallet() IWalletStorage
	Notification() INotificationStorage
}
