package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/store"
	"github.com/tmasplus/fleet-admin/internal/utils"
)

// AuthService owns credential storage. It stands in for the hosted auth
// subsystem the dashboard used to talk to, so accounts live apart from
// profiles and can be removed independently during a registration rollback.
type AuthService interface {
	CreateAccount(ctx context.Context, email, password string) (*models.AuthAccount, error)
	Authenticate(ctx context.Context, email, password string) (*models.AuthAccount, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	accounts store.IAuthStorage
	log      logger.ILogger
}

func NewAuthService(accounts store.IAuthStorage, log logger.ILogger) AuthService {
	return &authService{accounts: accounts, log: log}
}

func (s *authService) CreateAccount(ctx context.Context, email, password string) (*models.AuthAccount, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.New(apperr.Validation, "Please enter a valid email address.", "invalid email: "+email)
	}
	if len(password) < 6 {
		return nil, apperr.New(apperr.Validation, "Password must be at least 6 characters.", "password too short")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	acc := &models.AuthAccount{Email: email, PasswordHash: hash}
	if err := s.accounts.Create(ctx, acc); err != nil {
		e := apperr.FromDB(err)
		if e.Code == "23505" {
			e.Kind = apperr.Validation
			e.Message = "An account with this email already exists."
		}
		return nil, e
	}
	return acc, nil
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (*models.AuthAccount, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		// Indistinguishable from a bad password on purpose.
		return nil, apperr.New(apperr.Authentication, "Wrong email or password.", "no auth account for "+email)
	}
	if !utils.CheckPassword(acc.PasswordHash, password) {
		return nil, apperr.New(apperr.Authentication, "Wrong email or password.", "password mismatch for "+email)
	}
	return acc, nil
}

func (s *authService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		e := apperr.FromDB(err)
		if e.Kind == apperr.NotFound {
			// Already gone; deletion is idempotent for rollback callers.
			return nil
		}
		return e
	}
	return nil
}
