package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tmasplus/fleet-admin/internal/apperr"
	"github.com/tmasplus/fleet-admin/internal/pagination"
)

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "invalid body",
	})
}

// fail converts a classified error into the standard envelope. The technical
// detail stays server-side; clients get the user-facing message.
func fail(c *fiber.Ctx, err error) error {
	e := apperr.Wrap(err)
	body := fiber.Map{
		"success": false,
		"message": e.Message,
		"kind":    e.Kind,
	}
	if e.Code != "" {
		body["code"] = e.Code
	}
	return c.Status(apperr.Status(e)).JSON(body)
}

func ok(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.New(apperr.Validation, "Invalid identifier.", "bad uuid in "+name)
	}
	return id, nil
}

func pageParams(c *fiber.Ctx) pagination.Params {
	return pagination.Params{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", pagination.DefaultLimit),
	}.Normalize()
}
