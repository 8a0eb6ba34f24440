package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/utils"
)

// CookieName is the session cookie issued by the login handler.
const CookieName = "tp_token"

func JWTFromCookie(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(CookieName)
		if tokenStr == "" {
			return apperr.New(apperr.Authentication, "", "missing session cookie")
		}

		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return apperr.New(apperr.Authentication, "", "invalid session token: "+err.Error())
		}

		c.Locals("claims", claims)
		return c.Next()
	}
}
