package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mentorhub/marketplace/handlers"
	"github.com/mentorhub/marketplace/middleware"
)

// MentorRoutes registers the mentor dashboard. Guards sit on each route
// because a group-level guard on /mentor would also match /mentors.
func MentorRoutes(app *fiber.App) {
	api := app.Group("/api/v1")
	guard := []fiber.Handler{middleware.Protected(), middleware.MentorRequired()}
	with := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guard...), h)
	}

	mentor := api.Group("/mentor")
	mentor.Get("/projects", with(handlers.GetMyProjects)...)
	mentor.Post("/projects/suppress", with(handlers.SuppressMyCatalogue)...)
	mentor.Post("/projects/restore", with(handlers.RestoreMyCatalogue)...)

	mentor.Get("/journal-posts", with(handlers.GetMyJournalPosts)...)
	mentor.Post("/journal-posts", with(handlers.CreateJournalPost)...)
	mentor.Delete("/journal-posts/:id", with(handlers.DeleteJournalPost)...)

	mentor.Get("/subscribers", with(handlers.GetMySubscribers)...)
	mentor.Get("/students", with(handlers.GetMyStudents)...)
}
