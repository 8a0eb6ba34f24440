package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/utils"
)

func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Locals("claims")
		if raw == nil {
			return apperr.New(apperr.Authentication, "", "no parsed claims in context")
		}

		claims, ok := raw.(*utils.Claims)
		if !ok || claims == nil {
			return apperr.New(apperr.Authentication, "", "claims have unexpected type")
		}

		uid := strings.TrimSpace(claims.UserID)
		role := strings.ToLower(strings.TrimSpace(claims.Role))

		if uid == "" {
			return apperr.New(apperr.Authentication, "", "token carries no user id")
		}

		c.Locals("userId", uid)
		c.Locals("role", role)

		return c.Next()
	}
}
