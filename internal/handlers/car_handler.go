package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/service"
	"github.com/tmasplus/fleet-admin/internal/storage"
	"github.com/tmasplus/fleet-admin/internal/store"
)

type CarHandler struct {
	Cars    service.CarService
	Files   storage.FileStore
	Buckets service.Buckets
}

func (h *CarHandler) List(c *fiber.Ctx) error {
	filters := store.CarFilters{
		IsActive:    boolQuery(c, "is_active"),
		ServiceType: strings.TrimSpace(c.Query("service_type")),
		Search:      strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("driver_id"); raw != "" {
		driverID, err := uuid.Parse(raw)
		if err != nil {
			return fail(c, apperr.New(apperr.Validation, "Invalid driver id.", "bad driver_id query"))
		}
		filters.DriverID = &driverID
	}

	result, err := h.Cars.List(c.Context(), filters, pageParams(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", result)
}

func (h *CarHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	car, err := h.Cars.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", car)
}

type CreateCarReq struct {
	DriverID     *string `json:"driver_id"`
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Year         *int    `json:"year"`
	Color        *string `json:"color"`
	Plate        string  `json:"plate"`
	FuelType     string  `json:"fuel_type"`
	Transmission string  `json:"transmission"`
	Capacity     int     `json:"capacity"`
	ServiceType  *string `json:"service_type"`
}

func (h *CarHandler) Create(c *fiber.Ctx) error {
	var req CreateCarReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	if strings.TrimSpace(req.Make) == "" {
		errs.Add("make", "Make is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		errs.Add("model", "Model is required")
	}
	if strings.TrimSpace(req.Plate) == "" {
		errs.Add("plate", "Plate is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	input := service.CreateCarInput{
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		Color:        req.Color,
		Plate:        req.Plate,
		FuelType:     models.FuelType(req.FuelType),
		Transmission: models.Transmission(req.Transmission),
		Capacity:     req.Capacity,
	}
	if req.DriverID != nil {
		driverID, err := uuid.Parse(*req.DriverID)
		if err != nil {
			return fail(c, apperr.New(apperr.Validation, "Invalid driver id.", "bad driver_id"))
		}
		input.DriverID = &driverID
	}
	if req.ServiceType != nil {
		st := models.ServiceType(*req.ServiceType)
		input.ServiceType = &st
	}

	car, err := h.Cars.Create(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}
	return created(c, "Vehicle created", car)
}

func (h *CarHandler) Update(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}

	allowed := map[string]bool{
		"make": true, "model": true, "year": true, "color": true, "plate": true,
		"fuel_type": true, "transmission": true, "capacity": true,
		"service_type": true, "car_image": true,
	}
	updates := map[string]interface{}{}
	for key, val := range body {
		if allowed[key] {
			updates[key] = val
		}
	}

	car, err := h.Cars.Update(c.Context(), id, updates)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Vehicle updated", car)
}

// Delete retires the vehicle. ?hard=true removes the row entirely.
func (h *CarHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	if c.QueryBool("hard") {
		if err := h.Cars.HardDelete(c.Context(), id); err != nil {
			return fail(c, err)
		}
		return ok(c, "Vehicle deleted", nil)
	}

	car, err := h.Cars.SoftDelete(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Vehicle deactivated", car)
}

type ToggleActiveReq struct {
	Active bool `json:"active"`
}

func (h *CarHandler) ToggleActive(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req ToggleActiveReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	car, err := h.Cars.ToggleActive(c.Context(), id, req.Active)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Vehicle status updated", car)
}

type AssignDriverReq struct {
	DriverID *string `json:"driver_id"`
}

func (h *CarHandler) AssignDriver(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req AssignDriverReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	var driverID *uuid.UUID
	if req.DriverID != nil && *req.DriverID != "" {
		parsed, err := uuid.Parse(*req.DriverID)
		if err != nil {
			return fail(c, apperr.New(apperr.Validation, "Invalid driver id.", "bad driver_id"))
		}
		driverID = &parsed
	}

	car, err := h.Cars.AssignDriver(c.Context(), id, driverID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Driver assignment updated", car)
}

// documentColumns maps the accepted document slots to their columns.
var documentColumns = map[string]string{
	"car_image":          "car_image",
	"soat":               "soat_image",
	"property_card":      "card_prop_image",
	"property_card_back": "card_prop_image_back",
	"tecnomecanica":      "tecnomecanica_image",
	"camara_comercio":    "camara_comercio_image",
}

// UploadDocument replaces one vehicle document and, for dated documents,
// its expiry.
func (h *CarHandler) UploadDocument(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	slot := c.FormValue("document_type")
	column, known := documentColumns[slot]
	if !known {
		return fail(c, apperr.New(apperr.Validation, "Unknown document type.", "document_type="+slot))
	}

	errs := FieldErrors{}
	file, closer := requireFormFile(c, "file", errs)
	defer closer()
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	res := h.Files.Upload(storage.UploadOptions{
		Bucket: h.Buckets.VehicleDocuments,
		Folder: id.String(),
		File:   *file,
	})
	if !res.Success {
		return fail(c, apperr.New(apperr.Storage, res.Error, "upload rejected: "+res.Error))
	}

	updates := map[string]interface{}{column: res.URL}
	if raw := c.FormValue("expiry_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fail(c, apperr.New(apperr.Validation, "Expiry date must be YYYY-MM-DD.", "bad expiry_date"))
		}
		switch slot {
		case "soat":
			updates["soat_expiry_date"] = t
		case "tecnomecanica":
			updates["tecnomecanica_expiry_date"] = t
		}
	}

	car, err := h.Cars.Update(c.Context(), id, updates)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Document updated", car)
}

// ExpiringDocuments lists vehicles whose SOAT or tecnomecánica runs out
// within the report window, flagging the ones already expired.
func (h *CarHandler) ExpiringDocuments(c *fiber.Ctx) error {
	cars, err := h.Cars.ExpiringDocuments(c.Context())
	if err != nil {
		return fail(c, err)
	}

	now := time.Now()
	type expiringCar struct {
		models.Car
		SoatExpired          bool `json:"soat_expired"`
		TecnomecanicaExpired bool `json:"tecnomecanica_expired"`
	}
	report := make([]expiringCar, 0, len(cars))
	for _, car := range cars {
		report = append(report, expiringCar{
			Car:                  car,
			SoatExpired:          car.SoatExpiryDate != nil && car.SoatExpiryDate.Before(now),
			TecnomecanicaExpired: car.TecnomecanicaExpiryDate != nil && car.TecnomecanicaExpiryDate.Before(now),
		})
	}
	return ok(c, "", fiber.Map{
		"window_days": strconv.Itoa(int(service.ExpiryWindow.Hours() / 24)),
		"cars":        report,
	})
}

func (h *CarHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.Cars.Stats(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", stats)
}
