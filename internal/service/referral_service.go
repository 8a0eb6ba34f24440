package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/observability"
	"github.com/tmasplus/fleet-admin/internal/pagination"
	"github.com/tmasplus/fleet-admin/internal/store"
)

type ReferralService interface {
	ValidateCode(ctx context.Context, code string) (*models.ReferralCode, error)
	IsCodeAvailable(ctx context.Context, code string) (bool, error)
	CreateCodeForDriver(ctx context.Context, driverID uuid.UUID) (*models.ReferralCode, error)
	GetCodeForDriver(ctx context.Context, driverID uuid.UUID) (*models.ReferralCode, error)
	CreateReferral(ctx context.Context, code string, referredDriverID uuid.UUID) (*models.Referral, error)
	ListForDriver(ctx context.Context, driverID uuid.UUID, filters store.ReferralFilters, p pagination.Params) (*pagination.Result[models.Referral], error)
	StatsForDriver(ctx context.Context, driverID uuid.UUID) (*store.ReferralStats, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReferralStatus) (*models.Referral, error)
	ClaimReward(ctx context.Context, id uuid.UUID) (*models.Referral, error)
}

type referralService struct {
	referrals store.IReferralStorage
	log       logger.ILogger
}

func NewReferralService(referrals store.IReferralStorage, log logger.ILogger) ReferralService {
	return &referralService{referrals: referrals, log: log}
}

// NormalizeReferralCode: codes are compared upper-cased and trimmed, so
// "  ab12  " and "AB12" resolve to the same row.
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *referralService) ValidateCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	normalized := NormalizeReferralCode(code)
	if normalized == "" {
		observability.ReferralValidationsTotal.WithLabelValues("invalid").Inc()
		return nil, apperr.New(apperr.Validation, "Please enter a referral code.", "empty referral code")
	}

	rc, err := s.referrals.GetActiveCode(ctx, normalized)
	if err != nil {
		e := apperr.FromDB(err)
		if e.Kind == apperr.NotFound {
			observability.ReferralValidationsTotal.WithLabelValues("not_found").Inc()
			return nil, apperr.New(apperr.NotFound, "Referral code not found or inactive.", "no active code "+normalized)
		}
		observability.ReferralValidationsTotal.WithLabelValues("error").Inc()
		return nil, e
	}
	observability.ReferralValidationsTotal.WithLabelValues("valid").Inc()
	return rc, nil
}

func (s *referralService) IsCodeAvailable(ctx context.Context, code string) (bool, error) {
	exists, err := s.referrals.CodeExists(ctx, NormalizeReferralCode(code))
	if err != nil {
		return false, apperr.FromDB(err)
	}
	return !exists, nil
}

// CreateCodeForDriver mints a fresh 8-character code, retrying on the slim
// chance of a collision.
func (s *referralService) CreateCodeForDriver(ctx context.Context, driverID uuid.UUID) (*models.ReferralCode, error) {
	existing, err := s.referrals.GetCodeByDriver(ctx, driverID)
	if err == nil {
		return existing, nil
	}
	if e := apperr.FromDB(err); e.Kind != apperr.NotFound {
		return nil, e
	}

	for attempt := 0; attempt < 5; attempt++ {
		code := generateReferralCode()
		available, err := s.IsCodeAvailable(ctx, code)
		if err != nil {
			return nil, err
		}
		if !available {
			continue
		}
		rc := &models.ReferralCode{DriverID: driverID, ReferralCode: code, IsActive: true}
		if err := s.referrals.CreateCode(ctx, rc); err != nil {
			return nil, apperr.FromDB(err)
		}
		return rc, nil
	}
	return nil, apperr.New(apperr.Unknown, "", "could not generate a unique referral code")
}

func generateReferralCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return raw[:8]
}

func (s *referralService) GetCodeForDriver(ctx context.Context, driverID uuid.UUID) (*models.ReferralCode, error) {
	rc, err := s.referrals.GetCodeByDriver(ctx, driverID)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return rc, nil
}

// CreateReferral records that referredDriverID signed up with the given code.
// Self-referral and re-referral are rejected; the code's counter is bumped
// with a read-then-write, so concurrent referrals may under-count.
func (s *referralService) CreateReferral(ctx context.Context, code string, referredDriverID uuid.UUID) (*models.Referral, error) {
	rc, err := s.ValidateCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if rc.DriverID == referredDriverID {
		return nil, apperr.New(apperr.Validation, "You cannot use your own referral code.", "self-referral on code "+rc.ReferralCode)
	}

	if _, err := s.referrals.GetByReferredDriver(ctx, referredDriverID); err == nil {
		return nil, apperr.New(apperr.Validation, "This driver already has a referral.", "re-referral for "+referredDriverID.String())
	} else if e := apperr.FromDB(err); e.Kind != apperr.NotFound {
		return nil, e
	}

	ref := &models.Referral{
		ReferralCodeID:   rc.ID,
		ReferralCode:     rc.ReferralCode,
		ReferrerID:       rc.DriverID,
		ReferredDriverID: referredDriverID,
		Status:           models.ReferralPending,
	}
	if err := s.referrals.CreateReferral(ctx, ref); err != nil {
		return nil, apperr.FromDB(err)
	}

	if err := s.referrals.UpdateCode(ctx, rc.ID, map[string]interface{}{
		"total_referrals": rc.TotalReferrals + 1,
	}); err != nil {
		s.log.Error("failed to bump referral counter",
			logger.String("code", rc.ReferralCode), logger.Error(err))
	}
	return ref, nil
}

func (s *referralService) ListForDriver(ctx context.Context, driverID uuid.UUID, filters store.ReferralFilters, p pagination.Params) (*pagination.Result[models.Referral], error) {
	p = p.Normalize()
	refs, total, err := s.referrals.ListByReferrer(ctx, driverID, filters, p)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	result := pagination.Build(refs, total, p)
	return &result, nil
}

func (s *referralService) StatsForDriver(ctx context.Context, driverID uuid.UUID) (*store.ReferralStats, error) {
	stats, err := s.referrals.StatsByReferrer(ctx, driverID)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return stats, nil
}

func (s *referralService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReferralStatus) (*models.Referral, error) {
	switch status {
	case models.ReferralPending, models.ReferralCompleted, models.ReferralCancelled:
	default:
		return nil, apperr.New(apperr.Validation, "", "unknown referral status: "+string(status))
	}
	ref, err := s.referrals.UpdateReferral(ctx, id, map[string]interface{}{"status": status})
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return ref, nil
}

// ClaimReward marks the reward paid out. Only a completed, unclaimed referral
// qualifies.
func (s *referralService) ClaimReward(ctx context.Context, id uuid.UUID) (*models.Referral, error) {
	ref, err := s.referrals.GetReferralByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	if ref.Status != models.ReferralCompleted {
		return nil, apperr.New(apperr.Validation, "Only completed referrals can claim a reward.", "claim on status "+string(ref.Status))
	}
	if ref.RewardClaimed {
		return nil, apperr.New(apperr.Validation, "This reward was already claimed.", "double claim on "+id.String())
	}

	updated, err := s.referrals.UpdateReferral(ctx, id, map[string]interface{}{"reward_claimed": true})
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return updated, nil
}
