package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/pagination"
	"github.com/tmasplus/fleet-admin/internal/service"
	"github.com/tmasplus/fleet-admin/internal/store"
)

type UserHandler struct {
	Users  service.UserService
	Wallet store.IWalletStorage
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	user, err := h.Users.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", user)
}

type CreateUserReq struct {
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Mobile    string  `json:"mobile"`
	UserType  string  `json:"user_type"`
	City      *string `json:"city"`
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req CreateUserReq
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
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	user, err := h.Users.Create(c.Context(), service.CreateUserInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Mobile:    req.Mobile,
		UserType:  models.UserType(req.UserType),
		City:      req.City,
	})
	if err != nil {
		return fail(c, err)
	}
	return created(c, "User created", user)
}

// Update applies a partial patch. Only a whitelisted set of columns can be
// touched from the API.
func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}

	allowed := map[string]bool{
		"first_name": true, "last_name": true, "mobile": true, "city": true,
		"profile_image": true, "push_token": true, "user_platform": true,
		"is_verified": true, "location": true,
	}
	updates := map[string]interface{}{}
	for key, val := range body {
		if allowed[key] {
			updates[key] = val
		}
	}

	user, err := h.Users.Update(c.Context(), id, updates)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "User updated", user)
}

// Delete is a soft delete: the row stays, the account is blocked.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	user, err := h.Users.Update(c.Context(), id, map[string]interface{}{"blocked": true})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "User deactivated", user)
}

type WalletAdjustReq struct {
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	BookingID   *string `json:"booking_id"`
}

func (h *UserHandler) AdjustWallet(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req WalletAdjustReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	adj := service.WalletAdjustment{
		Amount:      req.Amount,
		Type:        models.WalletTrxType(req.Type),
		Description: strings.TrimSpace(req.Description),
	}
	if req.BookingID != nil {
		if bookingID, err := uuid.Parse(*req.BookingID); err == nil {
			adj.BookingID = &bookingID
		}
	}

	user, err := h.Users.AdjustWallet(c.Context(), id, adj)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Wallet updated", user)
}

func (h *UserHandler) WalletHistory(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	p := pageParams(c)
	entries, total, err := h.Wallet.ListByUser(c.Context(), id, p)
	if err != nil {
		return fail(c, err)
	}
	result := pagination.Build(entries, total, p)
	return ok(c, "", result)
}
