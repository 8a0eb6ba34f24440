package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/pagination"
	"github.com/tmasplus/fleet-admin/internal/store"
)

type CreateUserInput struct {
	AuthID     *uuid.UUID
	Email      string
	FirstName  string
	LastName   string
	Mobile     string
	UserType   models.UserType
	City       *string
	ReferralID *string
}

type WalletAdjustment struct {
	Amount      float64
	Type        models.WalletTrxType
	Description string
	BookingID   *uuid.UUID
}

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByAuthID(ctx context.Context, authID uuid.UUID) (*models.User, error)
	Create(ctx context.Context, input CreateUserInput) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.User, error)
	HardDelete(ctx context.Context, id uuid.UUID) error
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, mobile string) (bool, error)
	ListDrivers(ctx context.Context, filters store.DriverFilters, p pagination.Params) (*pagination.Result[models.User], error)
	DriverStats(ctx context.Context) (*store.DriverStats, error)
	DriverCities(ctx context.Context) ([]string, error)
	AdjustWallet(ctx context.Context, id uuid.UUID, adj WalletAdjustment) (*models.User, error)
}

type userService struct {
	users  store.IUserStorage
	wallet store.IWalletStorage
	log    logger.ILogger
}

func NewUserService(users store.IUserStorage, wallet store.IWalletStorage, log logger.ILogger) UserService {
	return &userService{users: users, wallet: wallet, log: log}
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return u, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return u, nil
}

func (s *userService) GetByAuthID(ctx context.Context, authID uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByAuthID(ctx, authID)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return u, nil
}

func (s *userService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	mobile := strings.TrimSpace(input.Mobile)

	if email == "" || firstName == "" {
		return nil, apperr.New(apperr.Validation, "", "email and first name are required")
	}
	userType := input.UserType
	if userType == "" {
		userType = models.UserTypeCustomer
	}

	u := &models.User{
		AuthID:     input.AuthID,
		Email:      email,
		FirstName:  firstName,
		LastName:   lastName,
		Mobile:     mobile,
		UserType:   userType,
		City:       input.City,
		ReferralID: input.ReferralID,
	}
	if err := s.users.Create(ctx, u); err != nil {
		e := apperr.FromDB(err)
		if e.Code == "23505" {
			e.Kind = apperr.Validation
			e.Message = "A user with this email already exists."
		}
		return nil, e
	}
	return u, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.User, error) {
	if len(updates) == 0 {
		return nil, apperr.New(apperr.Validation, "", "no fields to update")
	}
	u, err := s.users.Update(ctx, id, updates)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return u, nil
}

func (s *userService) HardDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.HardDelete(ctx, id); err != nil {
		e := apperr.FromDB(err)
		if e.Kind == apperr.NotFound {
			return nil
		}
		return e
	}
	return nil
}

func (s *userService) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	return existsFromLookup(err)
}

func (s *userService) PhoneExists(ctx context.Context, mobile string) (bool, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return false, nil
	}
	_, err := s.users.GetByMobile(ctx, mobile)
	return existsFromLookup(err)
}

// existsFromLookup turns a get-by-key result into an existence answer:
// found → true, not-found → false, anything else propagates.
func existsFromLookup(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	e := apperr.FromDB(err)
	if e.Kind == apperr.NotFound {
		return false, nil
	}
	return false, e
}

func (s *userService) ListDrivers(ctx context.Context, filters store.DriverFilters, p pagination.Params) (*pagination.Result[models.User], error) {
	p = p.Normalize()
	drivers, total, err := s.users.ListDrivers(ctx, filters, p)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	result := pagination.Build(drivers, total, p)
	return &result, nil
}

func (s *userService) DriverStats(ctx context.Context) (*store.DriverStats, error) {
	stats, err := s.users.DriverStats(ctx)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return stats, nil
}

func (s *userService) DriverCities(ctx context.Context) ([]string, error) {
	cities, err := s.users.DriverCities(ctx)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return cities, nil
}

var errInsufficientBalance = errors.New("insufficient balance")

// AdjustWallet applies a credit or debit and writes the matching ledger row.
// Read-then-write: concurrent adjustments on the same user can race, which is
// accepted for an internal tool.
func (s *userService) AdjustWallet(ctx context.Context, id uuid.UUID, adj WalletAdjustment) (*models.User, error) {
	if adj.Amount <= 0 {
		return nil, apperr.New(apperr.Validation, "Amount must be greater than zero.", "non-positive wallet amount")
	}
	if adj.Type != models.WalletTrxCredit && adj.Type != models.WalletTrxDebit {
		return nil, apperr.New(apperr.Validation, "", "unknown wallet transaction type: "+string(adj.Type))
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err)
	}

	balance := u.WalletBalance
	if adj.Type == models.WalletTrxCredit {
		balance += adj.Amount
	} else {
		if balance < adj.Amount {
			return nil, apperr.New(apperr.Validation, "Insufficient wallet balance.", errInsufficientBalance.Error())
		}
		balance -= adj.Amount
	}

	updated, err := s.users.Update(ctx, id, map[string]interface{}{"wallet_balance": balance})
	if err != nil {
		return nil, apperr.FromDB(err)
	}

	entry := &models.WalletHistory{
		UserID:      &id,
		Type:        adj.Type,
		Amount:      adj.Amount,
		Balance:     balance,
		Description: adj.Description,
		BookingID:   adj.BookingID,
	}
	if err := s.wallet.CreateEntry(ctx, entry); err != nil {
		// Balance already moved; a missing ledger row is logged, not fatal.
		s.log.Error("wallet ledger write failed", logger.String("user_id", id.String()), logger.Error(err))
	}
	return updated, nil
}
