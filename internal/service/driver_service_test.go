package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/models"
)

func TestRegisterDriverSuccess(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result := env.drivers.RegisterDriver(ctx, validRegistration())
	if !result.Success {
		t.Fatalf("registration failed: %s (%v)", result.Message, result.Errors)
	}
	if result.UserID == nil || result.CarID == nil {
		t.Fatal("result missing user or car id")
	}

	user, err := env.users.GetByID(ctx, *result.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if user.UserType != models.UserTypeDriver {
		t.Fatalf("user_type = %s", user.UserType)
	}
	if user.Approved || user.Blocked {
		t.Fatal("new driver must start pending and unblocked")
	}
	if user.LicenseNumber == nil || *user.LicenseNumber != "LIC-998877" {
		t.Fatal("license number not patched onto user")
	}
	if user.LicenseImage == nil || user.LicenseImageBack == nil ||
		user.VerifyIDImage == nil || user.VerifyIDImageBk == nil {
		t.Fatal("document urls not patched onto user")
	}

	car, err := env.cars.GetByID(ctx, *result.CarID)
	if err != nil {
		t.Fatal(err)
	}
	if car.Plate != "ABC123" {
		t.Fatalf("plate not normalized: %s", car.Plate)
	}
	if car.SoatImage == nil || car.CardPropImage == nil {
		t.Fatal("vehicle document urls not patched")
	}
	if car.SoatExpiryDate == nil {
		t.Fatal("soat expiry not patched")
	}

	// Four driver documents plus two vehicle documents.
	if len(env.files.uploads) != 6 {
		t.Fatalf("expected 6 uploads, got %d", len(env.files.uploads))
	}
}

func TestRegisterDriverVehicleUploadFailureRollsBack(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Step 3's SOAT upload fails; steps 1 and 2 succeed first.
	env.files.failNames["soat.jpg"] = true

	result := env.drivers.RegisterDriver(ctx, validRegistration())
	if result.Success {
		t.Fatal("registration must fail when a vehicle document upload fails")
	}
	if result.Errors["general"] == "" {
		t.Fatalf("expected general error, got %v", result.Errors)
	}

	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	if len(env.store.cars) != 0 {
		t.Fatal("car row survived the rollback")
	}
	if len(env.store.users) != 0 {
		t.Fatal("user row survived the rollback")
	}
	if len(env.store.accounts) != 0 {
		t.Fatal("auth account survived the rollback")
	}
}

func TestRegisterDriverDocumentUploadFailureRollsBack(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.files.failNames["id_front.jpg"] = true

	result := env.drivers.RegisterDriver(ctx, validRegistration())
	if result.Success {
		t.Fatal("registration must fail when a driver document upload fails")
	}

	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	if len(env.store.users) != 0 || len(env.store.accounts) != 0 {
		t.Fatal("identity survived the rollback")
	}
}

func TestRegisterDriverDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	input := validRegistration()
	if _, err := env.users.Create(ctx, CreateUserInput{
		Email:     input.Identity.Email,
		FirstName: "Existing",
		UserType:  models.UserTypeCustomer,
	}); err != nil {
		t.Fatal(err)
	}

	result := env.drivers.RegisterDriver(ctx, input)
	if result.Success {
		t.Fatal("duplicate email must be rejected")
	}
	if result.Errors["email"] == "" {
		t.Fatalf("expected an email field error, got %v", result.Errors)
	}
}

func TestRegisterDriverWithReferralCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	referrer, err := env.users.Create(ctx, CreateUserInput{
		Email:     "referrer@example.com",
		FirstName: "Vet",
		UserType:  models.UserTypeDriver,
	})
	if err != nil {
		t.Fatal(err)
	}
	code, err := env.refs.CreateCodeForDriver(ctx, referrer.ID)
	if err != nil {
		t.Fatal(err)
	}

	input := validRegistration()
	input.Identity.ReferralCode = "  " + code.ReferralCode + "  "

	result := env.drivers.RegisterDriver(ctx, input)
	if !result.Success {
		t.Fatalf("registration failed: %s", result.Message)
	}

	user, err := env.users.GetByID(ctx, *result.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if user.ReferralID == nil || *user.ReferralID != code.ReferralCode {
		t.Fatal("canonical referral code not stored on user")
	}

	ref, err := env.store.Referral().GetByReferredDriver(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ref.Status != models.ReferralPending {
		t.Fatalf("referral status = %s", ref.Status)
	}
	if ref.ReferrerID != referrer.ID {
		t.Fatal("referral does not point at the code owner")
	}

	updatedCode, err := env.refs.GetCodeForDriver(ctx, referrer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updatedCode.TotalReferrals != 1 {
		t.Fatalf("total_referrals = %d", updatedCode.TotalReferrals)
	}
}

func TestRegisterDriverUnknownReferralCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	input := validRegistration()
	input.Identity.ReferralCode = "NOPE1234"

	result := env.drivers.RegisterDriver(ctx, input)
	if result.Success {
		t.Fatal("unknown referral code must fail registration")
	}
	if result.Errors["referral_code"] == "" {
		t.Fatalf("expected referral_code field error, got %v", result.Errors)
	}
}

func TestToggleActiveStatusRequiresApprovedUnblocked(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	driver, err := env.users.Create(ctx, CreateUserInput{
		Email:     "driver@example.com",
		FirstName: "Pend",
		UserType:  models.UserTypeDriver,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := env.drivers.ToggleActiveStatus(ctx, driver.ID, true); err == nil {
		t.Fatal("pending driver must not go active")
	} else {
		var ae *apperr.Error
		if !errors.As(err, &ae) || ae.Kind != apperr.Validation {
			t.Fatalf("expected validation error, got %v", err)
		}
	}

	if _, err := env.drivers.ApproveDriver(ctx, driver.ID); err != nil {
		t.Fatal(err)
	}
	updated, err := env.drivers.ToggleActiveStatus(ctx, driver.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if !updated.DriverActiveStatus {
		t.Fatal("approved driver should be active now")
	}

	if _, err := env.drivers.BlockDriver(ctx, driver.ID); err != nil {
		t.Fatal(err)
	}
	blocked, err := env.users.GetByID(ctx, driver.ID)
	if err != nil {
		t.Fatal(err)
	}
	if blocked.DriverActiveStatus {
		t.Fatal("blocking must clear the active flag")
	}
	if _, err := env.drivers.ToggleActiveStatus(ctx, driver.ID, true); err == nil {
		t.Fatal("blocked driver must not go active")
	}

	// Deactivating is always allowed.
	if _, err := env.drivers.ToggleActiveStatus(ctx, driver.ID, false); err != nil {
		t.Fatalf("deactivation must not be gated: %v", err)
	}
}

func TestRejectThenApproveDriver(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	driver, err := env.users.Create(ctx, CreateUserInput{
		Email:     "maybe@example.com",
		FirstName: "Maybe",
		UserType:  models.UserTypeDriver,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := env.drivers.RejectDriver(ctx, driver.ID, "blurry documents"); err != nil {
		t.Fatal(err)
	}
	// Rejection is not terminal: a later approval goes through unchanged.
	approved, err := env.drivers.ApproveDriver(ctx, driver.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !approved.Approved {
		t.Fatal("driver not approved after rejection")
	}
}

func TestDriverProfileAggregatesCompanyData(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	input := validRegistration()
	input.Company = map[string]interface{}{"name": "Flota Andina SAS", "nit": "900123456"}

	result := env.drivers.RegisterDriver(ctx, input)
	if !result.Success {
		t.Fatalf("registration failed: %s", result.Message)
	}

	profile, err := env.drivers.Profile(ctx, *result.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if len(profile.Cars) != 1 {
		t.Fatalf("expected 1 car, got %d", len(profile.Cars))
	}
	if profile.Company == nil || profile.Company["name"] != "Flota Andina SAS" {
		t.Fatalf("company data not aggregated: %v", profile.Company)
	}
}
