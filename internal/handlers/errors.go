package handlers

import (
	"errors"
	"time"

	"blog/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var errBadBody = fiber.NewError(fiber.StatusBadRequest, "Invalid request body")

// StatusFor maps a service error kind to an HTTP status.
func StatusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return fiber.StatusBadRequest
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindAuth:
		return fiber.StatusUnauthorized
	case services.KindForbidden:
		return fiber.StatusForbidden
	case services.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler as
// {"message": ..., "timestamp": ...}. Causes of internal errors are logged and
// never sent to the client.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Server error"

		var svcErr *services.Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &svcErr):
			status = StatusFor(svcErr.Kind)
			message = svcErr.Message
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
		}

		if status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return c.Status(status).JSON(fiber.Map{
			"message":   message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
