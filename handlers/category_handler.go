package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mentorhub/marketplace/database"
	"github.com/mentorhub/marketplace/models"
)

type SuggestCategoryRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=100"`
	Description  *string `json:"description"`
	ContactEmail string  `json:"contact_email" validate:"required,email"`
	ContactName  *string `json:"contact_name" validate:"omitempty,max=255"`
	Comment      *string `json:"comment"`
}

func ListCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := database.DB.WithContext(c.UserContext()).Order("name asc").Find(&categories).Error; err != nil {
		return serviceError(c, err)
	}
	return c.JSON(categories)
}

func SuggestCategory(c *fiber.Ctx) error {
	var req SuggestCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	suggestion := models.CategorySuggestion{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		ContactEmail: strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		ContactName:  req.ContactName,
		Comment:      req.Comment,
		Status:       models.SuggestionPending,
	}
	if err := database.DB.WithContext(c.UserContext()).Create(&suggestion).Error; err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Thank you for your suggestion",
		"suggestion": suggestion,
	})
}
