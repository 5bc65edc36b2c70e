package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mentorhub/marketplace/handlers"
	"github.com/mentorhub/marketplace/middleware"
	"github.com/mentorhub/marketplace/services"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/dashboard-analytics", handlers.GetDashboardAnalytics)

	projects := admin.Group("/projects")
	projects.Get("", handlers.AdminListProjects)
	projects.Patch("/:id", handlers.AdminSetProjectVisibility)

	mentors := admin.Group("/mentors")
	mentors.Get("", handlers.AdminListMentors)
	mentors.Post("/:id/suppress", handlers.AdminSuppressMentor)
	mentors.Post("/:id/restore", handlers.AdminRestoreMentor)

	cfg := admin.Group("/config")
	cfg.Get("/commission-rate", handlers.GetCommissionRate)
	cfg.Put("/commission-rate",
		middleware.RequireCapability(services.ObjectConfig, services.ActionConfigManage),
		handlers.UpdateCommissionRate)

	suggestions := admin.Group("/category-suggestions")
	suggestions.Get("", handlers.ListCategorySuggestions)
	suggestions.Patch("/:id", handlers.ReviewCategorySuggestion)

	admin.Get("/audit-events", handlers.ListAuditEvents)

	reports := admin.Group("/reports")
	reports.Get("/transactions", handlers.GenerateTransactionReport)

	users := admin.Group("/users")
	users.Get("", handlers.GetAllUsers)
	users.Put("/:userId/status", handlers.ToggleUserStatus)
}
