package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	config "github.com/mentorhub/marketplace/configs"
	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/services"
)

const actorLocal = "actor"

func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(config.Config("JWT_SECRET")),
		SuccessHandler: resolveActor,
		ErrorHandler:   jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

func resolveActor(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return jwtError(c, fiber.ErrUnauthorized)
	}
	actor, ok := actorFromClaims(token)
	if !ok {
		return jwtError(c, fiber.ErrUnauthorized)
	}
	c.Locals(actorLocal, actor)
	return c.Next()
}

// OptionalAuth resolves the actor when a valid bearer token is present and
// lets anonymous requests through otherwise.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == "" || raw == header {
			return c.Next()
		}
		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.ErrUnauthorized
			}
			return []byte(config.Config("JWT_SECRET")), nil
		})
		if err == nil && token.Valid {
			if actor, ok := actorFromClaims(token); ok {
				c.Locals(actorLocal, actor)
			}
		}
		return c.Next()
	}
}

func actorFromClaims(token *jwt.Token) (services.Actor, bool) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return services.Actor{}, false
	}
	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return services.Actor{}, false
	}
	role, _ := claims["role"].(string)

	actor := services.Actor{UserID: userID, Role: role}
	if rawMentor, ok := claims["mentor_id"].(string); ok && rawMentor != "" {
		if mentorID, err := uuid.Parse(rawMentor); err == nil {
			actor.MentorID = &mentorID
		}
	}
	return actor, true
}

// CurrentActor returns the authenticated caller, if any.
func CurrentActor(c *fiber.Ctx) (services.Actor, bool) {
	actor, ok := c.Locals(actorLocal).(services.Actor)
	return actor, ok
}

// RequireCapability rejects callers whose role lacks action on object.
func RequireCapability(object, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok || !services.Authz.Allowed(actor, object, action) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: missing permission " + action,
			})
		}
		return c.Next()
	}
}

func AdminRequired() fiber.Handler {
	return RequireCapability(services.ObjectListing, services.ActionListingModerate)
}

func MentorRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok || actor.Role != models.RoleMentor || actor.MentorID == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Mentor access required",
			})
		}
		return c.Next()
	}
}
