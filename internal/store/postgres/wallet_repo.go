package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/pagination"
)

type walletRepo struct {
	db  *gorm.DB
	log logger.ILogger
}

func (r *walletRepo) CreateEntry(ctx context.Context, entry *models.WalletHistory) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.log.Error("failed to write wallet history", logger.Error(err))
		return err
	}
	return nil
}

func (r *walletRepo) ListByUser(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]models.WalletHistory, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.WalletHistory{}).
		Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.WalletHistory
	err := q.
		Order("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset()).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
