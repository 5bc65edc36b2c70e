package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mentorhub/marketplace/handlers"
	"github.com/mentorhub/marketplace/middleware"
	"github.com/mentorhub/marketplace/services"
)

func StripeRoutes(app *fiber.App) {
	api := app.Group("/api/v1")
	stripe := api.Group("/stripe")

	// Verified by signature, not by token.
	stripe.Post("/webhook", handlers.HandleStripeWebhook)

	payout := middleware.RequireCapability(services.ObjectPayoutAccount, services.ActionPayoutAccountManage)

	accounts := stripe.Group("/accounts", middleware.Protected())
	accounts.Post("", payout, handlers.CreateConnectedAccount)
	accounts.Post("/:accountId/onboard", payout, handlers.CreateOnboardingLink)
	accounts.Put("/:accountId/onboard", payout, handlers.CreateDashboardLink)
	accounts.Get("/:accountId/status", handlers.GetAccountStatus)

	products := stripe.Group("/products")
	products.Get("", handlers.ListProducts)
	products.Post("", middleware.Protected(), payout, handlers.CreateProduct)

	stripe.Post("/checkout/create-session", handlers.CreateProductCheckout)
}
