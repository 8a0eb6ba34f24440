package postgres

import (
	"gorm.io/gorm"

	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/store"
)

// Storage bundles the per-entity repositories over a single gorm handle.
type Storage struct {
	user         *userRepo
	car          *carRepo
	referral     *referralRepo
	auth         *authRepo
	wallet       *walletRepo
	notification *notificationRepo
}

func NewStorage(db *gorm.DB, log logger.ILogger) *Storage {
	return &Storage{
		user:         &userRepo{db: db, log: log},
		car:          &carRepo{db: db, log: log},
		referral:     &referralRepo{db: db, log: log},
		auth:         &authRepo{db: db, log: log},
		wallet:       &walletRepo{db: db, log: log},
		notification: &notificationRepo{db: db, log: log},
	}
}

func (s *Storage) User() store.IUserStorage                 { return s.user }
func (s *Storage) Car() store.ICarStorage                   { return s.car }
func (s *Storage) Referral() store.IReferralStorage         { return s.referral }
func (s *Storage) Auth() store.IAuthStorage                 { return s.auth }
func (s *Storage) Wallet() store.IWalletStorage             { return s.wallet }
func (s *Storage) Notification() store.INotificationStorage { return s.notification }
