package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/pagination"
	"github.com/tmasplus/fleet-admin/internal/store"
)

type referralRepo struct {
	db  *gorm.DB
	log logger.ILogger
}

func (r *referralRepo) GetCodeByDriver(ctx context.Context, driverID uuid.UUID) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	if err := r.db.WithContext(ctx).First(&rc, "driver_id = ?", driverID).Error; err != nil {
		return nil, err
	}
	return &rc, nil
}

func (r *referralRepo) GetActiveCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	err := r.db.WithContext(ctx).
		First(&rc, "referral_code = ? AND is_active = true", code).Error
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

func (r *referralRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReferralCode{}).
		Where("referral_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *referralRepo) CreateCode(ctx context.Context, rc *models.ReferralCode) error {
	if err := r.db.WithContext(ctx).Create(rc).Error; err != nil {
		r.log.Error("failed to create referral code", logger.String("code", rc.ReferralCode), logger.Error(err))
		return err
	}
	return nil
}

func (r *referralRepo) UpdateCode(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&models.ReferralCode{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *referralRepo) GetReferralByID(ctx context.Context, id uuid.UUID) (*models.Referral, error) {
	var ref models.Referral
	if err := r.db.WithContext(ctx).First(&ref, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *referralRepo) GetByReferredDriver(ctx context.Context, referredDriverID uuid.UUID) (*models.Referral, error) {
	var ref models.Referral
	if err := r.db.WithContext(ctx).First(&ref, "referred_driver_id = ?", referredDriverID).Error; err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *referralRepo) CreateReferral(ctx context.Context, ref *models.Referral) error {
	if err := r.db.WithContext(ctx).Create(ref).Error; err != nil {
		r.log.Error("failed to create referral", logger.String("code", ref.ReferralCode), logger.Error(err))
		return err
	}
	return nil
}

func (r *referralRepo) UpdateReferral(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Referral, error) {
	var ref models.Referral
	res := r.db.WithContext(ctx).
		Model(&ref).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &ref, nil
}

func (r *referralRepo) ListByReferrer(ctx context.Context, referrerID uuid.UUID, filters store.ReferralFilters, p pagination.Params) ([]models.Referral, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Referral{}).
		Where("referrer_id = ?", referrerID)
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.RewardClaimed != nil {
		q = q.Where("reward_claimed = ?", *filters.RewardClaimed)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var refs []models.Referral
	err := q.
		Order("referred_at DESC").
		Limit(p.Limit).
		Offset(p.Offset()).
		Find(&refs).Error
	if err != nil {
		return nil, 0, err
	}
	return refs, total, nil
}

func (r *referralRepo) StatsByReferrer(ctx context.Context, referrerID uuid.UUID) (*store.ReferralStats, error) {
	type row struct {
		Status        models.ReferralStatus
		RewardClaimed bool
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Referral{}).
		Select("status", "reward_claimed").
		Where("referrer_id = ?", referrerID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &store.ReferralStats{Total: int64(len(rows))}
	for _, ref := range rows {
		switch ref.Status {
		case models.ReferralPending:
			stats.Pending++
		case models.ReferralCompleted:
			stats.Completed++
		case models.ReferralCancelled:
			stats.Cancelled++
		}
		if ref.RewardClaimed {
			stats.RewardsClaimed++
		}
	}
	return stats, nil
}
