package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tmasplus/fleet-admin/internal/apperr"
)

func RequireRoles(allowed ...string) fiber.Handler {
	allowedSet := map[string]bool{}
	for _, r := range allowed {
		allowedSet[strings.ToLower(r)] = true
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if role == "" {
			return apperr.New(apperr.Authentication, "", "no role in context")
		}
		if !allowedSet[role] {
			return apperr.New(apperr.Authorization, "", "role "+role+" not allowed here")
		}
		return c.Next()
	}
}
