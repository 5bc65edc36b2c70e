package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mentorhub/marketplace/database"
	"github.com/mentorhub/marketplace/logger"
	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/payments"
	"github.com/mentorhub/marketplace/services"
	"go.uber.org/zap"
)

type CreateProductRequest struct {
	Name               string `json:"name" validate:"required,max=250"`
	Description        string `json:"description"`
	PriceCents         int64  `json:"price_cents" validate:"min=0"`
	Currency           string `json:"currency" validate:"omitempty,len=3"`
	ConnectedAccountID string `json:"connected_account_id" validate:"required,startswith=acct_"`
}

type ProductCheckoutRequest struct {
	ProductID          string `json:"product_id" validate:"required"`
	Quantity           int64  `json:"quantity" validate:"required,min=1"`
	ConnectedAccountID string `json:"connected_account_id" validate:"required,startswith=acct_"`
}

// CreateConnectedAccount links a payout account to the calling mentor.
func CreateConnectedAccount(c *fiber.Ctx) error {
	actor := mustActor(c)

	var user models.User
	if err := database.DB.WithContext(c.UserContext()).Select("id", "email").First(&user, "id = ?", actor.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	accountID, created, err := services.Payouts.CreateAccount(c.UserContext(), actor, user.Email)
	if err != nil {
		return gatewayError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"account_id": accountID, "created": created})
}

func CreateOnboardingLink(c *fiber.Ctx) error {
	link, err := services.Payouts.OnboardingLink(c.UserContext(), mustActor(c), c.Params("accountId"))
	if err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(link)
}

func CreateDashboardLink(c *fiber.Ctx) error {
	link, err := services.Payouts.DashboardLink(c.UserContext(), mustActor(c), c.Params("accountId"))
	if err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(link)
}

// GetAccountStatus reports the live onboarding state of a connected account.
func GetAccountStatus(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	if !payments.ValidAccountID(accountID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": payments.ErrInvalidAccountID.Error()})
	}
	if !services.Payouts.CanViewAccount(c.UserContext(), mustActor(c), accountID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	eligibility, err := services.Payouts.AccountStatus(c.UserContext(), accountID)
	if err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(eligibility)
}

func CreateProduct(c *fiber.Ctx) error {
	var req CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	product, err := services.Payouts.CreateProduct(c.UserContext(), mustActor(c), payments.ProductInput{
		Name:               req.Name,
		Description:        req.Description,
		UnitAmount:         req.PriceCents,
		Currency:           req.Currency,
		ConnectedAccountID: req.ConnectedAccountID,
	})
	if err != nil {
		return gatewayError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func ListProducts(c *fiber.Ctx) error {
	products, err := services.Payouts.ListProducts(c.UserContext(), c.QueryInt("limit", 20))
	if err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"products": products})
}

func CreateProductCheckout(c *fiber.Ctx) error {
	var req ProductCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := services.Checkout.CheckoutProduct(c.UserContext(), services.ProductCheckoutInput{
		ProductID:          req.ProductID,
		Quantity:           req.Quantity,
		ConnectedAccountID: req.ConnectedAccountID,
	})
	if err != nil {
		return gatewayError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleStripeWebhook acknowledges every verified event. Only completed
// checkouts change state.
func HandleStripeWebhook(c *fiber.Ctx) error {
	log := logger.FromContext(c.UserContext())

	event, err := services.Payouts.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		log.Warn("rejected webhook", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid webhook signature"})
	}

	if event.Type != payments.EventCheckoutSessionCompleted || event.Checkout == nil {
		return c.JSON(fiber.Map{"received": true})
	}

	err = services.Checkout.ConfirmCheckout(c.UserContext(), *event.Checkout)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrCapacityReached):
		log.Warn("paid checkout for a full project, enrollment cancelled",
			zap.String("event_id", event.ID),
			zap.String("session_id", event.Checkout.SessionID),
		)
	default:
		log.Error("failed to confirm checkout", zap.String("event_id", event.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process event"})
	}
	return c.JSON(fiber.Map{"received": true})
}
