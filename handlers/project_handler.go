package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mentorhub/marketplace/database"
	"github.com/mentorhub/marketplace/logger"
	"github.com/mentorhub/marketplace/middleware"
	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/services"
	"go.uber.org/zap"
)

type CreateProjectRequest struct {
	Title            string   `json:"title" validate:"required,min=3,max=255"`
	Description      string   `json:"description" validate:"required"`
	ShortDescription *string  `json:"short_description" validate:"omitempty,max=500"`
	Category         string   `json:"category" validate:"required,oneof=TECHNOLOGY BUSINESS DESIGN ACADEMIC LANGUAGE CREATIVE OTHER"`
	Purposes         []string `json:"purposes" validate:"required,min=1,dive,oneof=MONETARIZE LEISURE CAREER ACADEMIC"`
	LearningPurpose  *string  `json:"learning_purpose"`
	Difficulty       string   `json:"difficulty" validate:"required,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Duration         int      `json:"duration" validate:"required,min=1"`
	PriceCents       int64    `json:"price_cents" validate:"min=0"`
	Currency         string   `json:"currency" validate:"omitempty,len=3"`
	MaxStudents      int      `json:"max_students" validate:"required,min=1"`
	Objectives       []string `json:"objectives"`
	Prerequisites    []string `json:"prerequisites"`
	Tools            []string `json:"tools"`
	Deliverables     []string `json:"deliverables"`
}

type ProjectResponse struct {
	models.Project
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
	SpotsLeft     int     `json:"spots_left"`
}

type ratingSummary struct {
	ProjectID uuid.UUID
	Avg       float64
	Count     int64
}

func projectRatings(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]ratingSummary {
	out := make(map[uuid.UUID]ratingSummary, len(ids))
	if len(ids) == 0 {
		return out
	}
	var rows []ratingSummary
	err := database.DB.WithContext(ctx).Model(&models.Review{}).
		Select("project_id, COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("project_id IN ?", ids).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		logger.FromContext(ctx).Warn("load project ratings failed", zap.Error(err))
	}
	for _, r := range rows {
		out[r.ProjectID] = r
	}
	return out
}

func toProjectResponses(ctx context.Context, projects []models.Project) []ProjectResponse {
	ids := make([]uuid.UUID, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	ratings := projectRatings(ctx, ids)

	out := make([]ProjectResponse, len(projects))
	for i, p := range projects {
		r := ratings[p.ID]
		out[i] = ProjectResponse{
			Project:       p,
			AverageRating: r.Avg,
			ReviewCount:   r.Count,
			SpotsLeft:     max(p.MaxStudents-p.CurrentStudents, 0),
		}
	}
	return out
}

func ListProjects(c *fiber.Ctx) error {
	projects, err := services.Listings.ListDiscoverable(c.UserContext(), services.ListingFilter{
		Category:   c.Query("category"),
		Difficulty: c.Query("difficulty"),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(toProjectResponses(c.UserContext(), projects))
}

func GetProject(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project ID"})
	}
	project, err := services.Listings.GetDiscoverable(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(toProjectResponses(c.UserContext(), []models.Project{*project})[0])
}

func CreateProject(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	project, err := services.Listings.Create(c.UserContext(), mustActor(c), services.CreateListingInput{
		Title:            req.Title,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Category:         req.Category,
		Purposes:         req.Purposes,
		LearningPurpose:  req.LearningPurpose,
		Difficulty:       req.Difficulty,
		DurationWeeks:    req.Duration,
		PriceCents:       req.PriceCents,
		Currency:         req.Currency,
		MaxStudents:      req.MaxStudents,
		Objectives:       req.Objectives,
		Prerequisites:    req.Prerequisites,
		Tools:            req.Tools,
		Deliverables:     req.Deliverables,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"project":      project,
		"publish_mode": services.Listings.PublishMode(),
	})
}

func CheckoutProject(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project ID"})
	}

	var email string
	actor, _ := middleware.CurrentActor(c)
	var student models.User
	if err := database.DB.WithContext(c.UserContext()).Select("id", "email").First(&student, "id = ?", actor.UserID).Error; err == nil {
		email = student.Email
	}

	result, err := services.Checkout.CheckoutProject(c.UserContext(), actor, id, email)
	if err != nil {
		return gatewayError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
