package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mentorhub/marketplace/handlers"
	"github.com/mentorhub/marketplace/middleware"
	"github.com/mentorhub/marketplace/services"
)

// PublicRoutes registers the student-facing catalogue.
func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	projects := api.Group("/projects")
	projects.Get("", handlers.ListProjects)
	projects.Get("/:id", handlers.GetProject)
	projects.Post("", middleware.Protected(), middleware.MentorRequired(), handlers.CreateProject)
	projects.Post("/:id/checkout", middleware.Protected(),
		middleware.RequireCapability(services.ObjectEnrollment, services.ActionEnrollmentCheckout),
		handlers.CheckoutProject)

	mentors := api.Group("/mentors")
	mentors.Get("", handlers.ListMentors)
	mentors.Get("/:id", handlers.GetMentor)
	mentors.Get("/:id/posts", middleware.OptionalAuth(), handlers.GetMentorPosts)
	mentors.Post("/:id/subscribe", middleware.Protected(), handlers.SubscribeToMentor)

	api.Get("/categories", handlers.ListCategories)
	api.Post("/suggest-category", handlers.SuggestCategory)
}
