package handlers

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/service"
	"github.com/tmasplus/fleet-admin/internal/storage"
	"github.com/tmasplus/fleet-admin/internal/store"
)

type DriverHandler struct {
	Drivers service.DriverService
	Users   service.UserService
}

// formFile turns an optional multipart part into an upload payload. The
// returned closer must run after the upload completed.
func formFile(c *fiber.Ctx, field string) (*storage.File, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil, nil
	}
	return openHeader(fh)
}

func requireFormFile(c *fiber.Ctx, field string, errs FieldErrors) (*storage.File, func()) {
	file, closer, _ := formFile(c, field)
	if file == nil {
		errs.Add(field, "File is required")
		return nil, func() {}
	}
	return file, closer
}

func openHeader(fh *multipart.FileHeader) (*storage.File, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	file := &storage.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Reader:      f,
	}
	return file, func() { f.Close() }, nil
}

func boolQuery(c *fiber.Ctx, name string) *bool {
	switch strings.ToLower(c.Query(name)) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

func parseVehicleForm(c *fiber.Ctx, errs FieldErrors) (service.VehicleInput, []func()) {
	var closers []func()

	input := service.VehicleInput{
		Make:  strings.TrimSpace(c.FormValue("make")),
		Model: strings.TrimSpace(c.FormValue("model")),
		Plate: c.FormValue("plate"),
	}
	if input.Make == "" {
		errs.Add("make", "Make is required")
	}
	if input.Model == "" {
		errs.Add("model", "Model is required")
	}
	if strings.TrimSpace(input.Plate) == "" {
		errs.Add("plate", "Plate is required")
	}

	if raw := c.FormValue("year"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			input.Year = &year
		} else {
			errs.Add("year", "Year must be a number")
		}
	}
	if color := strings.TrimSpace(c.FormValue("color")); color != "" {
		input.Color = &color
	}
	if raw := c.FormValue("fuel_type"); raw != "" {
		input.FuelType = models.FuelType(raw)
	}
	if raw := c.FormValue("transmission"); raw != "" {
		input.Transmission = models.Transmission(raw)
	}
	if raw := c.FormValue("capacity"); raw != "" {
		if capacity, err := strconv.Atoi(raw); err == nil {
			input.Capacity = capacity
		}
	}
	if raw := c.FormValue("service_type"); raw != "" {
		st := models.ServiceType(raw)
		input.ServiceType = &st
	}
	if raw := c.FormValue("soat_expiry_date"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			input.SoatExpiry = &t
		} else {
			errs.Add("soat_expiry_date", "Use YYYY-MM-DD")
		}
	}
	if raw := c.FormValue("tecnomecanica_expiry_date"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			input.TecnomecanicaExpiry = &t
		} else {
			errs.Add("tecnomecanica_expiry_date", "Use YYYY-MM-DD")
		}
	}

	propertyCard, closer := requireFormFile(c, "property_card", errs)
	closers = append(closers, closer)
	if propertyCard != nil {
		input.PropertyCard = *propertyCard
	}
	soat, closer := requireFormFile(c, "soat", errs)
	closers = append(closers, closer)
	if soat != nil {
		input.Soat = *soat
	}

	if file, closer, _ := formFile(c, "property_card_back"); file != nil {
		input.PropertyCardBack = file
		closers = append(closers, closer)
	}
	if file, closer, _ := formFile(c, "tecnomecanica"); file != nil {
		input.Tecnomecanica = file
		closers = append(closers, closer)
	}
	if file, closer, _ := formFile(c, "camara_comercio"); file != nil {
		input.CamaraComercio = file
		closers = append(closers, closer)
	}

	return input, closers
}

func parseDocumentsForm(c *fiber.Ctx, errs FieldErrors) (service.DriverDocuments, []func()) {
	var docs service.DriverDocuments
	var closers []func()

	for _, part := range []struct {
		field string
		dst   *storage.File
	}{
		{"id_front", &docs.IDFront},
		{"id_back", &docs.IDBack},
		{"license_front", &docs.LicenseFront},
		{"license_back", &docs.LicenseBack},
	} {
		file, closer := requireFormFile(c, part.field, errs)
		closers = append(closers, closer)
		if file != nil {
			*part.dst = *file
		}
	}
	return docs, closers
}

// Register runs the full four-step onboarding from one multipart request.
func (h *DriverHandler) Register(c *fiber.Ctx) error {
	errs := FieldErrors{}

	identity := service.IdentityInput{
		Email:        c.FormValue("email"),
		Password:     c.FormValue("password"),
		FirstName:    c.FormValue("first_name"),
		LastName:     c.FormValue("last_name"),
		Mobile:       c.FormValue("mobile"),
		ReferralCode: c.FormValue("referral_code"),
	}
	if city := strings.TrimSpace(c.FormValue("city")); city != "" {
		identity.City = &city
	}
	if strings.TrimSpace(identity.Email) == "" {
		errs.Add("email", "Email is required")
	}
	if strings.TrimSpace(identity.FirstName) == "" {
		errs.Add("first_name", "First name is required")
	}
	if len(strings.TrimSpace(identity.Password)) < 6 {
		errs.Add("password", "Password must be at least 6 characters")
	}

	licenseNumber := strings.TrimSpace(c.FormValue("license_number"))
	if licenseNumber == "" {
		errs.Add("license_number", "License number is required")
	}

	docs, docClosers := parseDocumentsForm(c, errs)
	vehicle, vehicleClosers := parseVehicleForm(c, errs)
	defer func() {
		for _, closer := range append(docClosers, vehicleClosers...) {
			closer()
		}
	}()

	var company map[string]interface{}
	if raw := c.FormValue("company"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &company); err != nil {
			errs.Add("company", "Company data must be a JSON object")
		}
	}

	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	result := h.Drivers.RegisterDriver(c.Context(), service.RegistrationInput{
		Identity:      identity,
		LicenseNumber: licenseNumber,
		Documents:     docs,
		Vehicle:       vehicle,
		Company:       company,
	})
	if !result.Success {
		return c.Status(fiber.StatusBadRequest).JSON(result)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

type IdentityReq struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Mobile       string  `json:"mobile"`
	City         *string `json:"city"`
	ReferralCode string  `json:"referral_code"`
}

// RegisterIdentity is step 1 on its own, for clients driving the steps
// individually.
func (h *DriverHandler) RegisterIdentity(c *fiber.Ctx) error {
	var req IdentityReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	errs := FieldErrors{}
	if strings.TrimSpace(req.Email) == "" {
		errs.Add("email", "Email is required")
	}
	if strings.TrimSpace(req.FirstName) == "" {
		errs.Add("first_name", "First name is required")
	}
	if len(strings.TrimSpace(req.Password)) < 6 {
		errs.Add("password", "Password must be at least 6 characters")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	user, err := h.Drivers.CreateDriverIdentity(c.Context(), service.IdentityInput{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Mobile:       req.Mobile,
		City:         req.City,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		return fail(c, err)
	}
	return created(c, "Driver identity created", user)
}

// RegisterDocuments is step 2 on its own.
func (h *DriverHandler) RegisterDocuments(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	errs := FieldErrors{}
	licenseNumber := strings.TrimSpace(c.FormValue("license_number"))
	if licenseNumber == "" {
		errs.Add("license_number", "License number is required")
	}
	docs, closers := parseDocumentsForm(c, errs)
	defer func() {
		for _, closer := range closers {
			closer()
		}
	}()
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	user, err := h.Drivers.UploadDriverDocuments(c.Context(), id, licenseNumber, docs)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Documents uploaded", user)
}

// RegisterVehicle is step 3 on its own.
func (h *DriverHandler) RegisterVehicle(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	errs := FieldErrors{}
	vehicle, closers := parseVehicleForm(c, errs)
	defer func() {
		for _, closer := range closers {
			closer()
		}
	}()
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	car, err := h.Drivers.RegisterVehicle(c.Context(), id, vehicle)
	if err != nil {
		return fail(c, err)
	}
	return created(c, "Vehicle registered", car)
}

// AttachCompany is step 4 on its own.
func (h *DriverHandler) AttachCompany(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var company map[string]interface{}
	if err := c.BodyParser(&company); err != nil {
		return badBody(c)
	}
	if err := h.Drivers.AttachCompanyData(c.Context(), id, company); err != nil {
		return fail(c, err)
	}
	return ok(c, "Company data saved", nil)
}

func (h *DriverHandler) List(c *fiber.Ctx) error {
	filters := store.DriverFilters{
		Approved: boolQuery(c, "approved"),
		Blocked:  boolQuery(c, "blocked"),
		City:     strings.TrimSpace(c.Query("city")),
		Search:   strings.TrimSpace(c.Query("search")),
	}

	result, err := h.Users.ListDrivers(c.Context(), filters, pageParams(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", result)
}

func (h *DriverHandler) Profile(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	profile, err := h.Drivers.Profile(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", profile)
}

func (h *DriverHandler) Approve(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	user, err := h.Drivers.ApproveDriver(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Driver approved", user)
}

type RejectReq struct {
	Reason string `json:"reason"`
}

func (h *DriverHandler) Reject(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req RejectReq
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badBody(c)
	}
	user, err := h.Drivers.RejectDriver(c.Context(), id, strings.TrimSpace(req.Reason))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Driver rejected", user)
}

func (h *DriverHandler) Block(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	user, err := h.Drivers.BlockDriver(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Driver blocked", user)
}

func (h *DriverHandler) Unblock(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	user, err := h.Drivers.UnblockDriver(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Driver unblocked", user)
}

type ActiveStatusReq struct {
	Active bool `json:"active"`
}

func (h *DriverHandler) SetActiveStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req ActiveStatusReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	user, err := h.Drivers.ToggleActiveStatus(c.Context(), id, req.Active)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Active status updated", user)
}

func (h *DriverHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.Users.DriverStats(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", stats)
}

func (h *DriverHandler) Cities(c *fiber.Ctx) error {
	cities, err := h.Users.DriverCities(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", cities)
}
