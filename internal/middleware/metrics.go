package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tmasplus/fleet-admin/internal/observability"
)

// Metrics records request counts and latency per registered route pattern, so
// /drivers/:id shows up as one series instead of one per id.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		observability.HTTPRequestsTotal.
			WithLabelValues(route, c.Method(), strconv.Itoa(status)).
			Inc()
		observability.HTTPRequestDuration.
			WithLabelValues(route).
			Observe(time.Since(start).Seconds())

		return err
	}
}
