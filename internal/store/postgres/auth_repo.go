package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/models"
)

type authRepo struct {
	db  *gorm.DB
	log logger.ILogger
}

func (r *authRepo) GetByEmail(ctx context.Context, email string) (*models.AuthAccount, error) {
	var acc models.AuthAccount
	if err := r.db.WithContext(ctx).First(&acc, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *authRepo) Create(ctx context.Context, acc *models.AuthAccount) error {
	if err := r.db.WithContext(ctx).Create(acc).Error; err != nil {
		r.log.Error("failed to create auth account", logger.String("email", acc.Email), logger.Error(err))
		return err
	}
	return nil
}

func (r *authRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.AuthAccount{}, "id = ?", id)
	if res.Error != nil {
		r.log.Error("failed to delete auth account", logger.String("id", id.String()), logger.Error(res.Error))
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
