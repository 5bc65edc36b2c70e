package routes

import "github.com/gofiber/fiber/v2"

// Register mounts every API area on app.
func Register(app *fiber.App) {
	PublicRoutes(app)
	AuthRoutes(app)
	ProfileRoutes(app)
	MentorRoutes(app)
	AdminRoutes(app)
	StripeRoutes(app)
	UploadRoutes(app)
}
