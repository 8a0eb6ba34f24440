package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/middleware"
	"github.com/tmasplus/fleet-admin/internal/models"
	"github.com/tmasplus/fleet-admin/internal/service"
	"github.com/tmasplus/fleet-admin/internal/utils"
)

type AuthHandler struct {
	Auth      service.AuthService
	Users     service.UserService
	JWTSecret string
	Expires   int
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login signs an admin into the dashboard. Only approved, unblocked admin
// profiles get a session; everyone else is refused at the door.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	errs := FieldErrors{}
	if email == "" {
		errs.Add("email", "Email is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	acc, err := h.Auth.Authenticate(c.Context(), email, password)
	if err != nil {
		return fail(c, err)
	}

	profile, err := h.Users.GetByAuthID(c.Context(), acc.ID)
	if err != nil {
		return fail(c, apperr.New(apperr.Authentication, "Wrong email or password.", "no profile for auth account "+acc.ID.String()))
	}

	if profile.UserType != models.UserTypeAdmin {
		return fail(c, apperr.New(apperr.Authorization, "This account cannot access the dashboard.", "non-admin login: "+string(profile.UserType)))
	}
	if !profile.Approved || profile.Blocked {
		return fail(c, apperr.New(apperr.Authorization, "Your account is not enabled for dashboard access.", "unapproved or blocked admin "+profile.ID.String()))
	}

	token, err := utils.SignJWT(h.JWTSecret, profile.ID.String(), string(profile.UserType), h.Expires)
	if err != nil {
		return fail(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})

	return ok(c, "Login successful", fiber.Map{
		"user": fiber.Map{
			"id":         profile.ID,
			"email":      profile.Email,
			"first_name": profile.FirstName,
			"last_name":  profile.LastName,
			"user_type":  profile.UserType,
		},
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
	})
	return ok(c, "Logout successful", nil)
}

// Me returns the profile behind the current session cookie.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uidStr, _ := c.Locals("userId").(string)
	uid, err := uuid.Parse(uidStr)
	if err != nil {
		return fail(c, apperr.New(apperr.Authentication, "", "bad user id in session"))
	}

	profile, err := h.Users.GetByID(c.Context(), uid)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "", profile)
}
