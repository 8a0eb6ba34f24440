package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/service"
	"github.com/tmasplus/fleet-admin/internal/store"
)

type ReferralHandler struct {
	Referrals service.ReferralService
}

// Validate answers whether a code can currently be used.
func (h *ReferralHandler) Validate(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return fail(c, apperr.New(apperr.Validation, "Please enter a referral code.", "missing code query"))
	}

	rc, err := h.Referrals.ValidateCode(c.Context(), code)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Referral code is valid", fiber.Map{
		"code":      rc.ReferralCode,
		"driver_id": rc.DriverID,
	})
}

func (h *ReferralHandler) CodeForDriver(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	rc, err := h.Referrals.GetCodeForDriver(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", rc)
}

func (h *ReferralHandler) CreateCodeForDriver(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	rc, err := h.Referrals.CreateCodeForDriver(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return created(c, "Referral code ready", rc)
}

type CreateReferralReq struct {
	Code             string `json:"code"`
	ReferredDriverID string `json:"referred_driver_id"`
}

func (h *ReferralHandler) Create(c *fiber.Ctx) error {
	var req CreateReferralReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	referred, err := uuid.Parse(req.ReferredDriverID)
	if err != nil {
		return fail(c, apperr.New(apperr.Validation, "Invalid driver id.", "bad referred_driver_id"))
	}

	ref, err := h.Referrals.CreateReferral(c.Context(), req.Code, referred)
	if err != nil {
		return fail(c, err)
	}
	return created(c, "Referral recorded", ref)
}

func (h *ReferralHandler) ListForDriver(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	filters := store.ReferralFilters{
		Status:        strings.TrimSpace(c.Query("status")),
		RewardClaimed: boolQuery(c, "reward_claimed"),
	}
	result, err := h.Referrals.ListForDriver(c.Context(), id, filters, pageParams(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", result)
}

func (h *ReferralHandler) StatsForDriver(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	stats, err := h.Referrals.StatsForDriver(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", stats)
}

type UpdateReferralStatusReq struct {
	Status string `json:"status"`
}

func (h *ReferralHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req UpdateReferralStatusReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ref, err := h.Referrals.UpdateStatus(c.Context(), id, models.ReferralStatus(req.Status))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Referral status updated", ref)
}

func (h *ReferralHandler) ClaimReward(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ref, err := h.Referrals.ClaimReward(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "Reward claimed", ref)
}
