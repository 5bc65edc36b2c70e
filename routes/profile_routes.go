package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mentorhub/marketplace/handlers"
	"github.com/mentorhub/marketplace/middleware"
)

func ProfileRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	profile := api.Group("/profile", middleware.Protected())
	profile.Get("/me", handlers.GetProfile)
	profile.Put("/me", handlers.UpdateProfile)
	profile.Get("/mentor", middleware.MentorRequired(), handlers.GetMentorProfile)
	profile.Patch("/mentor", middleware.MentorRequired(), handlers.UpdateMentorProfile)
}
