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

type userRepo struct {
	db  *gorm.DB
	log logger.ILogger
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByAuthID(ctx context.Context, authID uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "auth_id = ?", authID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "mobile = ?", mobile).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.log.Error("failed to create user", logger.String("email", user.Email), logger.Error(err))
		return err
	}
	return nil
}

// Update applies a partial patch and returns the fresh row. The updated-at
// stamp is set here so every write path gets it, not only full saves.
func (r *userRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.User, error) {
	updates["updated_at"] = time.Now()

	var u models.User
	res := r.db.WithContext(ctx).
		Model(&u).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		r.log.Error("failed to update user", logger.String("id", id.String()), logger.Error(res.Error))
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

// HardDelete removes the row outright. The only caller is the registration
// rollback; admin-facing removal is a soft delete through Update.
func (r *userRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		r.log.Error("failed to delete user", logger.String("id", id.String()), logger.Error(res.Error))
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func driverQuery(db *gorm.DB, filters store.DriverFilters) *gorm.DB {
	q := db.Model(&models.User{}).Where("user_type = ?", models.UserTypeDriver)
	if filters.Approved != nil {
		q = q.Where("approved = ?", *filters.Approved)
	}
	if filters.Blocked != nil {
		q = q.Where("blocked = ?", *filters.Blocked)
	}
	if filters.City != "" {
		q = q.Where("city = ?", filters.City)
	}
	if filters.Search != "" {
		term := "%" + filters.Search + "%"
		q = q.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR mobile ILIKE ?",
			term, term, term, term,
		)
	}
	return q
}

func (r *userRepo) ListDrivers(ctx context.Context, filters store.DriverFilters, p pagination.Params) ([]models.User, int64, error) {
	q := driverQuery(r.db.WithContext(ctx), filters)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var drivers []models.User
	err := q.
		Order("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset()).
		Find(&drivers).Error
	if err != nil {
		return nil, 0, err
	}
	return drivers, total, nil
}

func (r *userRepo) DriverStats(ctx context.Context) (*store.DriverStats, error) {
	type row struct {
		Approved           bool
		Blocked            bool
		DriverActiveStatus bool
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("approved", "blocked", "driver_active_status").
		Where("user_type = ?", models.UserTypeDriver).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &store.DriverStats{Total: int64(len(rows))}
	for _, d := range rows {
		switch {
		case d.Blocked:
			stats.Blocked++
		case d.Approved:
			stats.Approved++
		default:
			stats.Pending++
		}
		if d.DriverActiveStatus {
			stats.Active++
		}
	}
	return stats, nil
}

func (r *userRepo) DriverCities(ctx context.Context) ([]string, error) {
	var cities []string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_type = ? AND city IS NOT NULL AND city <> ''", models.UserTypeDriver).
		Distinct().
		Order("city ASC").
		Pluck("city", &cities).Error
	if err != nil {
		return nil, err
	}
	return cities, nil
}
