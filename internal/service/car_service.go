package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/pagination"
	"github.com/tmasplus/fleet-admin/internal/store"
)

// ExpiryWindow is how far ahead the expiring-documents report looks.
const ExpiryWindow = 30 * 24 * time.Hour

type CreateCarInput struct {
	DriverID     *uuid.UUID
	Make         string
	Model        string
	Year         *int
	Color        *string
	Plate        string
	FuelType     models.FuelType
	Transmission models.Transmission
	Capacity     int
	ServiceType  *models.ServiceType
}

type CarService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error)
	GetByDriver(ctx context.Context, driverID uuid.UUID) ([]models.Car, error)
	List(ctx context.Context, filters store.CarFilters, p pagination.Params) (*pagination.Result[models.Car], error)
	Create(ctx context.Context, input CreateCarInput) (*models.Car, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Car, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (*models.Car, error)
	HardDelete(ctx context.Context, id uuid.UUID) error
	PlateExists(ctx context.Context, plate string) (bool, error)
	DriverHasCars(ctx context.Context, driverID uuid.UUID) (bool, error)
	ToggleActive(ctx context.Context, id uuid.UUID, active bool) (*models.Car, error)
	AssignDriver(ctx context.Context, id uuid.UUID, driverID *uuid.UUID) (*models.Car, error)
	ExpiringDocuments(ctx context.Context) ([]models.Car, error)
	Stats(ctx context.Context) (*store.CarStats, error)
}

type carService struct {
	cars store.ICarStorage
	log  logger.ILogger
}

func NewCarService(cars store.ICarStorage, log logger.ILogger) CarService {
	return &carService{cars: cars, log: log}
}

// NormalizePlate is the canonical plate form used for storage and lookups.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

func (s *carService) GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	c, err := s.cars.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return c, nil
}

func (s *carService) GetByDriver(ctx context.Context, driverID uuid.UUID) ([]models.Car, error) {
	cars, err := s.cars.GetByDriver(ctx, driverID)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return cars, nil
}

func (s *carService) List(ctx context.Context, filters store.CarFilters, p pagination.Params) (*pagination.Result[models.Car], error) {
	p = p.Normalize()
	cars, total, err := s.cars.List(ctx, filters, p)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	result := pagination.Build(cars, total, p)
	return &result, nil
}

func (s *carService) Create(ctx context.Context, input CreateCarInput) (*models.Car, error) {
	plate := NormalizePlate(input.Plate)
	if plate == "" || strings.TrimSpace(input.Make) == "" || strings.TrimSpace(input.Model) == "" {
		return nil, apperr.New(apperr.Validation, "", "make, model and plate are required")
	}

	exists, err := s.PlateExists(ctx, plate)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.New(apperr.Validation, "A vehicle with this plate is already registered.", "duplicate plate "+plate)
	}

	fuel := input.FuelType
	if fuel == "" {
		fuel = models.FuelGasolina
	}
	transmission := input.Transmission
	if transmission == "" {
		transmission = models.TransmissionManual
	}
	capacity := input.Capacity
	if capacity <= 0 {
		capacity = 4
	}

	car := &models.Car{
		DriverID:     input.DriverID,
		Make:         strings.TrimSpace(input.Make),
		Model:        strings.TrimSpace(input.Model),
		Year:         input.Year,
		Color:        input.Color,
		Plate:        plate,
		FuelType:     fuel,
		Transmission: transmission,
		Capacity:     capacity,
		IsActive:     true,
		ServiceType:  input.ServiceType,
	}
	if err := s.cars.Create(ctx, car); err != nil {
		e := apperr.FromDB(err)
		if e.Code == "23505" {
			e.Kind = apperr.Validation
			e.Message = "A vehicle with this plate is already registered."
		}
		return nil, e
	}
	return car, nil
}

func (s *carService) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.Car, error) {
	if len(updates) == 0 {
		return nil, apperr.New(apperr.Validation, "", "no fields to update")
	}
	if plate, ok := updates["plate"].(string); ok {
		updates["plate"] = NormalizePlate(plate)
	}
	car, err := s.cars.Update(ctx, id, updates)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return car, nil
}

func (s *carService) SoftDelete(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	return s.Update(ctx, id, map[string]interface{}{"is_active": false})
}

func (s *carService) HardDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.cars.HardDelete(ctx, id); err != nil {
		e := apperr.FromDB(err)
		if e.Kind == apperr.NotFound {
			return nil
		}
		return e
	}
	return nil
}

func (s *carService) PlateExists(ctx context.Context, plate string) (bool, error) {
	_, err := s.cars.GetByPlate(ctx, NormalizePlate(plate))
	return existsFromLookup(err)
}

func (s *carService) DriverHasCars(ctx context.Context, driverID uuid.UUID) (bool, error) {
	cars, err := s.cars.GetByDriver(ctx, driverID)
	if err != nil {
		return false, apperr.FromDB(err)
	}
	return len(cars) > 0, nil
}

func (s *carService) ToggleActive(ctx context.Context, id uuid.UUID, active bool) (*models.Car, error) {
	return s.Update(ctx, id, map[string]interface{}{"is_active": active})
}

func (s *carService) AssignDriver(ctx context.Context, id uuid.UUID, driverID *uuid.UUID) (*models.Car, error) {
	return s.Update(ctx, id, map[string]interface{}{"driver_id": driverID})
}

func (s *carService) ExpiringDocuments(ctx context.Context) ([]models.Car, error) {
	cars, err := s.cars.ExpiringDocuments(ctx, time.Now().Add(ExpiryWindow))
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return cars, nil
}

func (s *carService) Stats(ctx context.Context) (*store.CarStats, error) {
	stats, err := s.cars.Stats(ctx)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	return stats, nil
}
