package handlers

import (
	"errors"
	"fmt"

	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// validationFailed reports validator errors per field.
func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// serviceError maps a service error onto a status code. message is used for
// the body of unexpected failures.
func serviceError(c *fiber.Ctx, logger *zap.Logger, err error, message string) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = fiber.StatusBadRequest
		message = "Invalid request"
	case errors.Is(err, services.ErrInvalidSignature):
		status = fiber.StatusBadRequest
		message = "Invalid signature sent!"
	case errors.Is(err, services.ErrNotAuthorized):
		status = fiber.StatusUnauthorized
		message = "Not authorized"
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
		message = "Not found"
	case errors.Is(err, services.ErrUpstream):
		status = fiber.StatusBadGateway
		message = "Payment gateway unavailable"
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error(message, zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
