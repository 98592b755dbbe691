package handlers

import (
	"errors"

	"github.com/casey/buddyup-api/internal/matching"
	"github.com/gofiber/fiber/v2"
)

// engineError maps the matching engine's error kinds to HTTP responses.
func engineError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, matching.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, matching.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, matching.ErrInvalidState),
		errors.Is(err, matching.ErrDuplicateRelationship),
		errors.Is(err, matching.ErrCapacityExceeded):
		status = fiber.StatusConflict
	case errors.Is(err, matching.ErrBusy):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
