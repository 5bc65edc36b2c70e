package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mentorhub/marketplace/logger"
	"github.com/mentorhub/marketplace/middleware"
	"github.com/mentorhub/marketplace/payments"
	"github.com/mentorhub/marketplace/services"
	"go.uber.org/zap"
)

var validate = validator.New()

// serviceError maps domain errors to HTTP responses.
func serviceError(c *fiber.Ctx, err error) error {
	if status, msg, ok := knownError(err); ok {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	logger.FromContext(c.UserContext()).Error("request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// gatewayError is serviceError for calls that reach the payment provider;
// unknown failures carry the provider's detail.
func gatewayError(c *fiber.Ctx, err error) error {
	if status, msg, ok := knownError(err); ok {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	logger.FromContext(c.UserContext()).Error("payment provider call failed", zap.Error(err))
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment provider request failed", "detail": err.Error()})
}

func knownError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, services.ErrInvalidRate), errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, payments.ErrInvalidAccountID):
		return fiber.StatusBadRequest, err.Error(), true
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden, "Forbidden", true
	case errors.Is(err, services.ErrListingNotFound):
		return fiber.StatusNotFound, "Project not found", true
	case errors.Is(err, services.ErrMentorNotFound):
		return fiber.StatusNotFound, "Mentor not found", true
	case errors.Is(err, payments.ErrAccountNotFound):
		return fiber.StatusNotFound, "Account not found", true
	case errors.Is(err, payments.ErrProductNotFound):
		return fiber.StatusNotFound, "Product not found", true
	case errors.Is(err, services.ErrNotEligible):
		return fiber.StatusConflict, "This mentor cannot accept payments yet", true
	case errors.Is(err, services.ErrCapacityReached):
		return fiber.StatusConflict, "Project is full", true
	case errors.Is(err, services.ErrMissingAccount):
		return fiber.StatusConflict, "Mentor has no payout account", true
	case errors.Is(err, payments.ErrInvalidSignature):
		return fiber.StatusBadRequest, err.Error(), true
	case errors.Is(err, services.ErrAlreadyEnrolled):
		return fiber.StatusConflict, err.Error(), true
	}
	return 0, "", false
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func mustActor(c *fiber.Ctx) services.Actor {
	actor, _ := middleware.CurrentActor(c)
	return actor
}
