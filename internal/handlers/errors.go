package handlers

import (
	"errors"
	availabilityController "washfamily/internal/controllers/availability"
	authController "washfamily/internal/controllers/auth"
	orderController "washfamily/internal/controllers/orders"
	userController "washfamily/internal/controllers/users"
	"washfamily/internal/services"
	"washfamily/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

// errorStatus maps controller and upstream errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, authController.ErrNotAuthenticated),
		errors.Is(err, services.ErrSessionExpired),
		errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, userController.ErrWasherAccessDenied):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, availabilityController.ErrSlotNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrRejected),
		errors.Is(err, orderController.ErrActionNotAllowed),
		errors.Is(err, services.ErrDefaultSlotLocked):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the JSON error body. extra carries whatever state the
// client should keep showing, such as the unchanged order after a refused
// transition.
func respondError(c *fiber.Ctx, log logger.Logger, err error, extra fiber.Map) error {
	status := errorStatus(err)

	body := fiber.Map{
		"error":     err.Error(),
		"retryable": services.IsRetryable(err),
	}

	var validationErr *types.ValidationError
	if errors.As(err, &validationErr) {
		body["fields"] = validationErr.Fields
	}

	if status == fiber.StatusInternalServerError {
		log.Er("unhandled error", err, "path", c.Path())
		body["error"] = "Internal server error"
	}

	for key, value := range extra {
		body[key] = value
	}

	return c.Status(status).JSON(body)
}

func invalidBody(c *fiber.Ctx, log logger.Logger, err error) error {
	log.Warn("Invalid request body", "error", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":     "Invalid request body",
		"retryable": false,
	})
}
