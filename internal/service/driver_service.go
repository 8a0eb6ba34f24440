package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/logger"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/observability"
	"github.com/tmasplus/fleet-admin/internal/storage"
)

// IdentityInput is step 1 of onboarding: credentials plus the profile row.
type IdentityInput struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Mobile       string
	City         *string
	ReferralCode string
}

// DriverDocuments are the four fixed images of step 2.
type DriverDocuments struct {
	IDFront      storage.File
	IDBack       storage.File
	LicenseFront storage.File
	LicenseBack  storage.File
}

// VehicleInput is step 3: the car row plus its documents. PropertyCard and
// Soat are mandatory; Tecnomecanica and CamaraComercio travel only for the
// service types that require them.
type VehicleInput struct {
	Make         string
	Model        string
	Year         *int
	Color        *string
	Plate        string
	FuelType     models.FuelType
	Transmission models.Transmission
	Capacity     int
	ServiceType  *models.ServiceType

	PropertyCard        storage.File
	PropertyCardBack    *storage.File
	Soat                storage.File
	SoatExpiry          *time.Time
	Tecnomecanica       *storage.File
	TecnomecanicaExpiry *time.Time
	CamaraComercio      *storage.File
}

type RegistrationInput struct {
	Identity      IdentityInput
	LicenseNumber string
	Documents     DriverDocuments
	Vehicle       VehicleInput
	Company       map[string]interface{}
}

// RegistrationResult is what RegisterDriver hands back: always a value, never
// an error. Failure paths land in Message and Errors.
type RegistrationResult struct {
	Success bool              `json:"success"`
	UserID  *uuid.UUID        `json:"user_id,omitempty"`
	CarID   *uuid.UUID        `json:"car_id,omitempty"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// DriverProfile aggregates the pieces the profile page renders.
type DriverProfile struct {
	User    *models.User           `json:"user"`
	Cars    []models.Car           `json:"cars"`
	Company map[string]interface{} `json:"company,omitempty"`
}

type DriverService interface {
	CreateDriverIdentity(ctx context.Context, input IdentityInput) (*models.User, error)
	UploadDriverDocuments(ctx context.Context, userID uuid.UUID, licenseNumber string, docs DriverDocuments) (*models.User, error)
	RegisterVehicle(ctx context.Context, userID uuid.UUID, input VehicleInput) (*models.Car, error)
	AttachCompanyData(ctx context.Context, userID uuid.UUID, company map[string]interface{}) error
	RegisterDriver(ctx context.Context, input RegistrationInput) *RegistrationResult

	ApproveDriver(ctx context.Context, id uuid.UUID) (*models.User, error)
	RejectDriver(ctx context.Context, id uuid.UUID, reason string) (*models.User, error)
	BlockDriver(ctx context.Context, id uuid.UUID) (*models.User, error)
	UnblockDriver(ctx context.Context, id uuid.UUID) (*models.User, error)
	ToggleActiveStatus(ctx context.Context, id uuid.UUID, active bool) (*models.User, error)
	Profile(ctx context.Context, id uuid.UUID) (*DriverProfile, error)
}

type Buckets struct {
	DriverDocuments  string
	VehicleDocuments string
}

type driverService struct {
	users     UserService
	cars      CarService
	referrals ReferralService
	auth      AuthService
	files     storage.FileStore
	buckets   Buckets
	log       logger.ILogger
}

func NewDriverService(users UserService, cars CarService, referrals ReferralService, auth AuthService, files storage.FileStore, buckets Buckets, log logger.ILogger) DriverService {
	return &driverService{
		users:     users,
		cars:      cars,
		referrals: referrals,
		auth:      auth,
		files:     files,
		buckets:   buckets,
		log:       log,
	}
}

// CreateDriverIdentity is step 1: uniqueness checks, optional referral code
// validation, auth account, then the profile row. Validation errors carry the
// offending field in Code so the composed flow can build field errors.
func (s *driverService) CreateDriverIdentity(ctx context.Context, input IdentityInput) (*models.User, error) {
	emailTaken, err := s.users.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if emailTaken {
		e := apperr.New(apperr.Validation, "An account with this email already exists.", "email taken: "+input.Email)
		e.Code = "email"
		return nil, e
	}

	phoneTaken, err := s.users.PhoneExists(ctx, input.Mobile)
	if err != nil {
		return nil, err
	}
	if phoneTaken {
		e := apperr.New(apperr.Validation, "An account with this phone number already exists.", "mobile taken: "+input.Mobile)
		e.Code = "mobile"
		return nil, e
	}

	var referralID *string
	if input.ReferralCode != "" {
		rc, err := s.referrals.ValidateCode(ctx, input.ReferralCode)
		if err != nil {
			// During onboarding a bad code is a field problem, not a lookup miss.
			wrapped := apperr.Wrap(err)
			e := apperr.New(apperr.Validation, wrapped.Message, wrapped.Technical)
			e.Code = "referral_code"
			return nil, e
		}
		referralID = &rc.ReferralCode
	}

	acc, err := s.auth.CreateAccount(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, CreateUserInput{
		AuthID:     &acc.ID,
		Email:      input.Email,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Mobile:     input.Mobile,
		UserType:   models.UserTypeDriver,
		City:       input.City,
		ReferralID: referralID,
	})
	if err != nil {
		// The auth account is already there; remove it so a retry with the
		// same email does not hit a phantom account.
		if delErr := s.auth.DeleteAccount(ctx, acc.ID); delErr != nil {
			s.log.Error("orphan auth account cleanup failed",
				logger.String("auth_id", acc.ID.String()), logger.Error(delErr))
		}
		return nil, err
	}

	if referralID != nil {
		if _, err := s.referrals.CreateReferral(ctx, *referralID, user.ID); err != nil {
			// The account stands even if the referral row cannot be written.
			s.log.Warning("referral row not created",
				logger.String("user_id", user.ID.String()), logger.Error(err))
		}
	}
	return user, nil
}

// UploadDriverDocuments is step 2: the four documents go up in parallel; a
// single failure fails the step. Files that did land stay where they are.
func (s *driverService) UploadDriverDocuments(ctx context.Context, userID uuid.UUID, licenseNumber string, docs DriverDocuments) (*models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	urls, err := s.uploadAll(s.buckets.DriverDocuments, userID.String(), map[string]storage.File{
		"verify_id_image":    docs.IDFront,
		"verify_id_image_bk": docs.IDBack,
		"license_image":      docs.LicenseFront,
		"license_image_back": docs.LicenseBack,
	})
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"license_number":     licenseNumber,
		"verify_id_image":    urls["verify_id_image"],
		"verify_id_image_bk": urls["verify_id_image_bk"],
		"license_image":      urls["license_image"],
		"license_image_back": urls["license_image_back"],
	}
	return s.users.Update(ctx, userID, updates)
}

// RegisterVehicle is step 3. If any document upload fails the just-created
// car row is removed again before the error goes up.
func (s *driverService) RegisterVehicle(ctx context.Context, userID uuid.UUID, input VehicleInput) (*models.Car, error) {
	car, err := s.cars.Create(ctx, CreateCarInput{
		DriverID:     &userID,
		Make:         input.Make,
		Model:        input.Model,
		Year:         input.Year,
		Color:        input.Color,
		Plate:        input.Plate,
		FuelType:     input.FuelType,
		Transmission: input.Transmission,
		Capacity:     input.Capacity,
		ServiceType:  input.ServiceType,
	})
	if err != nil {
		return nil, err
	}

	jobs := map[string]storage.File{
		"card_prop_image": input.PropertyCard,
		"soat_image":      input.Soat,
	}
	if input.PropertyCardBack != nil {
		jobs["card_prop_image_back"] = *input.PropertyCardBack
	}
	if input.Tecnomecanica != nil {
		jobs["tecnomecanica_image"] = *input.Tecnomecanica
	}
	if input.CamaraComercio != nil {
		jobs["camara_comercio_image"] = *input.CamaraComercio
	}

	urls, err := s.uploadAll(s.buckets.VehicleDocuments, car.ID.String(), jobs)
	if err != nil {
		// Compensating action: the car row must not survive without its
		// documents. A failed compensation is logged, never swallowed silently.
		observability.DriverRegistrationRollbacks.Inc()
		if delErr := s.cars.HardDelete(ctx, car.ID); delErr != nil {
			s.log.Error("vehicle rollback failed",
				logger.String("car_id", car.ID.String()), logger.Error(delErr))
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	for field, url := range urls {
		updates[field] = url
	}
	if input.SoatExpiry != nil {
		updates["soat_expiry_date"] = *input.SoatExpiry
	}
	if input.TecnomecanicaExpiry != nil {
		updates["tecnomecanica_expiry_date"] = *input.TecnomecanicaExpiry
	}
	return s.cars.Update(ctx, car.ID, updates)
}

// AttachCompanyData is step 4: the optional company blob is merged into the
// first vehicle's features JSON, there being no dedicated column for it.
func (s *driverService) AttachCompanyData(ctx context.Context, userID uuid.UUID, company map[string]interface{}) error {
	if len(company) == 0 {
		return nil
	}

	cars, err := s.cars.GetByDriver(ctx, userID)
	if err != nil {
		return err
	}
	if len(cars) == 0 {
		return apperr.New(apperr.Validation, "Register a vehicle before adding company data.", "no cars for driver "+userID.String())
	}
	first := cars[0]

	features := map[string]interface{}{}
	if len(first.Features) > 0 {
		if err := json.Unmarshal(first.Features, &features); err != nil {
			s.log.Warning("unreadable features blob replaced",
				logger.String("car_id", first.ID.String()), logger.Error(err))
			features = map[string]interface{}{}
		}
	}
	features["company"] = company

	raw, err := json.Marshal(features)
	if err != nil {
		return apperr.Wrap(err)
	}
	_, err = s.cars.Update(ctx, first.ID, map[string]interface{}{"features": datatypes.JSON(raw)})
	return err
}

// RegisterDriver runs steps 1-4 in order. A failure in steps 2-4 compensates
// by deleting the auth account and user row from step 1 — best effort, no
// transaction spans the steps.
func (s *driverService) RegisterDriver(ctx context.Context, input RegistrationInput) *RegistrationResult {
	user, err := s.CreateDriverIdentity(ctx, input.Identity)
	if err != nil {
		observability.DriverRegistrationsTotal.WithLabelValues("failure").Inc()
		return failedRegistration(err)
	}

	if _, err := s.UploadDriverDocuments(ctx, user.ID, input.LicenseNumber, input.Documents); err != nil {
		s.rollbackIdentity(ctx, user)
		observability.DriverRegistrationsTotal.WithLabelValues("failure").Inc()
		return failedRegistration(err)
	}

	car, err := s.RegisterVehicle(ctx, user.ID, input.Vehicle)
	if err != nil {
		s.rollbackIdentity(ctx, user)
		observability.DriverRegistrationsTotal.WithLabelValues("failure").Inc()
		return failedRegistration(err)
	}

	if len(input.Company) > 0 {
		if err := s.AttachCompanyData(ctx, user.ID, input.Company); err != nil {
			s.rollbackIdentity(ctx, user)
			observability.DriverRegistrationsTotal.WithLabelValues("failure").Inc()
			return failedRegistration(err)
		}
	}

	observability.DriverRegistrationsTotal.WithLabelValues("success").Inc()
	s.log.Info("driver registered",
		logger.String("user_id", user.ID.String()),
		logger.String("car_id", car.ID.String()))
	return &RegistrationResult{
		Success: true,
		UserID:  &user.ID,
		CarID:   &car.ID,
		Message: "Driver registered successfully.",
	}
}

func failedRegistration(err error) *RegistrationResult {
	e := apperr.Wrap(err)
	errs := map[string]string{"general": e.Message}
	if e.Kind == apperr.Validation && e.Code != "" && e.Code != "23505" {
		errs = map[string]string{e.Code: e.Message}
	}
	return &RegistrationResult{Success: false, Message: e.Message, Errors: errs}
}

// rollbackIdentity undoes step 1: auth account first, then the user row.
// Both deletes are idempotent; failures are logged and counted, not hidden.
func (s *driverService) rollbackIdentity(ctx context.Context, user *models.User) {
	observability.DriverRegistrationRollbacks.Inc()

	if user.AuthID != nil {
		if err := s.auth.DeleteAccount(ctx, *user.AuthID); err != nil {
			s.log.Error("registration rollback: auth account delete failed",
				logger.String("auth_id", user.AuthID.String()), logger.Error(err))
		}
	}
	if err := s.users.HardDelete(ctx, user.ID); err != nil {
		s.log.Error("registration rollback: user delete failed",
			logger.String("user_id", user.ID.String()), logger.Error(err))
	}
}

// uploadAll pushes every file concurrently and waits for the whole batch.
// The first failure wins; completed siblings are left in place.
func (s *driverService) uploadAll(bucket, folder string, jobs map[string]storage.File) (map[string]string, error) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		urls    = make(map[string]string, len(jobs))
		failure string
	)

	for key, file := range jobs {
		wg.Add(1)
		go func(key string, file storage.File) {
			defer wg.Done()
			res := s.files.Upload(storage.UploadOptions{
				Bucket: bucket,
				Folder: folder,
				File:   file,
			})

			mu.Lock()
			defer mu.Unlock()
			if res.Success {
				observability.UploadsTotal.WithLabelValues(bucket, "success").Inc()
				urls[key] = res.URL
			} else {
				observability.UploadsTotal.WithLabelValues(bucket, "failure").Inc()
				if failure == "" {
					failure = key + ": " + res.Error
				}
			}
		}(key, file)
	}
	wg.Wait()

	if failure != "" {
		return nil, apperr.New(apperr.Storage, "", "upload failed: "+failure)
	}
	return urls, nil
}

func (s *driverService) ApproveDriver(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// No type gate here: approval works on any user row. Non-drivers are
	// logged so the permissive behavior at least leaves a trace.
	if user.UserType != models.UserTypeDriver {
		s.log.Warning("approving non-driver user",
			logger.String("user_id", id.String()),
			logger.String("user_type", string(user.UserType)))
	}
	return s.users.Update(ctx, id, map[string]interface{}{"approved": true})
}

func (s *driverService) RejectDriver(ctx context.Context, id uuid.UUID, reason string) (*models.User, error) {
	s.log.Info("driver rejected",
		logger.String("user_id", id.String()),
		logger.String("reason", reason))
	return s.users.Update(ctx, id, map[string]interface{}{"approved": false})
}

// BlockDriver also drops the active flag: a blocked driver cannot stay
// available for trips.
func (s *driverService) BlockDriver(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.Update(ctx, id, map[string]interface{}{
		"blocked":              true,
		"driver_active_status": false,
	})
}

func (s *driverService) UnblockDriver(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.Update(ctx, id, map[string]interface{}{"blocked": false})
}

// ToggleActiveStatus flips availability. Going active requires an approved,
// unblocked driver; going inactive is always allowed.
func (s *driverService) ToggleActiveStatus(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if active && (!user.Approved || user.Blocked) {
		return nil, apperr.New(apperr.Validation,
			"Driver must be approved and not blocked to go active.",
			"active toggle refused for "+id.String())
	}
	return s.users.Update(ctx, id, map[string]interface{}{"driver_active_status": active})
}

func (s *driverService) Profile(ctx context.Context, id uuid.UUID) (*DriverProfile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cars, err := s.cars.GetByDriver(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &DriverProfile{User: user, Cars: cars}
	if len(cars) > 0 && len(cars[0].Features) > 0 {
		var features map[string]interface{}
		if err := json.Unmarshal(cars[0].Features, &features); err == nil {
			if company, ok := features["company"].(map[string]interface{}); ok {
				profile.Company = company
			}
		}
	}
	return profile, nil
}
