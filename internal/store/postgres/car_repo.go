package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/pagination"
	"github.com/tmasplus/fleet-admin/internal/store"
)

type carRepo struct {
	db  *gorm.DB
	log logger.ILogger
}

func (r *carRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	var c models.Car
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *carRepo) GetByDriver(ctx context.Context, driverID uuid.UUID) ([]models.Car, error) {
	var cars []models.Car
	// Oldest first: index 0 is the vehicle registered during onboarding.
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at ASC").
		Find(&cars).Error
	if err != nil {
		return nil, err
	}
	return cars, nil
}

func (r *carRepo) GetByPlate(ctx context.Context, plate string) (*models.Car, error) {
	var c models.Car
	if err := r.db.WithContext(ctx).First(&c, "plate = ?", plate).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *carRepo) List(ctx context.Context, filters store.CarFilters, p pagination.Params) ([]models.Car, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Car{})
	if filters.DriverID != nil {
		q = q.Where("driver_id = ?", *filters.DriverID)
	}
	if filters.IsActive != nil {
		q = q.Where("is_active = ?", *filters.IsActive)
	}
	if filters.ServiceType != "" {
		q = q.Where("service_type = ?", filters.ServiceType)
	}
	if filters.Search != "" {
		term := "%" + filters.Search + "%"
		q = q.Where("make ILIKE ? OR model ILIKE ? OR plate ILIKE ?", term, term, term)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cars []models.Car
	err := q.
		Order("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset()).
		Find(&cars).Error
	if err != nil {
		return nil, 0, err
	}
	return cars, total, nil
}

func (r *carRepo) Create(ctx context.Context, car *models.Car) error {
	if err := r.db.WithContext(ctx).Create(car).Error; err != nil {
		r.log.Error("failed to create car", logger.String("plate", car.Plate), logger.Error(err))
		return err
	}
	return nil
}

func (r *carRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Car, error) {
	updates["updated_at"] = time.Now()

	var c models.Car
	res := r.db.WithContext(ctx).
		Model(&c).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		r.log.Error("failed to update car", logger.String("id", id.String()), logger.Error(res.Error))
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *carRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Car{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *carRepo) ExpiringDocuments(ctx context.Context, before time.Time) ([]models.Car, error) {
	var cars []models.Car
	err := r.db.WithContext(ctx).
		Where("soat_expiry_date <= ? OR tecnomecanica_expiry_date <= ?", before, before).
		Order("soat_expiry_date ASC").
		Find(&cars).Error
	if err != nil {
		return nil, err
	}
	return cars, nil
}

func (r *carRepo) Stats(ctx context.Context) (*store.CarStats, error) {
	stats := &store.CarStats{ByServiceType: map[models.ServiceType]int64{}}

	if err := r.db.WithContext(ctx).Model(&models.Car{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).
		Model(&models.Car{}).
		Where("is_active = true").
		Count(&stats.Active).Error
	if err != nil {
		return nil, err
	}

	type row struct {
		ServiceType *models.ServiceType
		Count       int64
	}
	var rows []row
	err = r.db.WithContext(ctx).
		Model(&models.Car{}).
		Select("service_type", "count(*) as count").
		Group("service_type").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.ServiceType == nil {
			continue
		}
		stats.ByServiceType[*row.ServiceType] = row.Count
	}
	return stats, nil
}
