package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mentorhub/marketplace/database"
	"github.com/mentorhub/marketplace/logger"
	"github.com/mentorhub/marketplace/middleware"
	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const latestPostsLimit = 5

type MentorSummary struct {
	models.MentorProfile
	ActiveProjects int64   `json:"active_projects"`
	AverageRating  float64 `json:"average_rating"`
	TotalStudents  int64   `json:"total_students"`
}

type PostResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   *string   `json:"excerpt"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
	Views     int64     `json:"views"`
}

type SubscribeRequest struct {
	Subscribe *bool `json:"subscribe" validate:"required"`
}

// ListMentors returns mentors with at least one discoverable project.
func ListMentors(c *fiber.Ctx) error {
	ctx := c.UserContext()
	discoverable := database.DB.Model(&models.Project{}).Scopes(services.Discoverable).Select("mentor_id")

	var mentors []models.MentorProfile
	if err := database.DB.WithContext(ctx).Preload("User").Where("id IN (?)", discoverable).Find(&mentors).Error; err != nil {
		return serviceError(c, err)
	}

	out := make([]MentorSummary, 0, len(mentors))
	for _, m := range mentors {
		summary := MentorSummary{MentorProfile: m, AverageRating: m.Rating}
		if err := database.DB.WithContext(ctx).Model(&models.Project{}).Scopes(services.Discoverable).
			Where("mentor_id = ?", m.ID).Count(&summary.ActiveProjects).Error; err != nil {
			return serviceError(c, err)
		}
		err := database.DB.WithContext(ctx).Model(&models.Enrollment{}).
			Joins("JOIN projects ON projects.id = enrollments.project_id").
			Where("projects.mentor_id = ? AND enrollments.status = ?", m.ID, models.EnrollmentConfirmed).
			Distinct("enrollments.student_id").Count(&summary.TotalStudents).Error
		if err != nil {
			return serviceError(c, err)
		}
		out = append(out, summary)
	}
	return c.JSON(out)
}

func GetMentor(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid mentor ID"})
	}

	var mentor models.MentorProfile
	err := database.DB.WithContext(c.UserContext()).Preload("User").First(&mentor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Mentor not found"})
	}
	if err != nil {
		return serviceError(c, err)
	}

	projects, err := services.Listings.ListDiscoverable(c.UserContext(), services.ListingFilter{MentorID: &id})
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"mentor":   mentor,
		"projects": toProjectResponses(c.UserContext(), projects),
	})
}

// GetMentorPosts returns the latest posts. Private posts are visible to the
// mentor and to active subscribers only.
func GetMentorPosts(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid mentor ID"})
	}
	ctx := c.UserContext()

	seePrivate := false
	actor, authenticated := middleware.CurrentActor(c)
	if authenticated {
		if actor.MentorID != nil && *actor.MentorID == id {
			seePrivate = true
		} else {
			var count int64
			err := database.DB.WithContext(ctx).Model(&models.MentorSubscription{}).
				Where("mentor_id = ? AND student_id = ? AND is_active = ?", id, actor.UserID, true).
				Count(&count).Error
			if err != nil {
				return serviceError(c, err)
			}
			seePrivate = count > 0
		}
	}

	query := database.DB.WithContext(ctx).Where("mentor_id = ?", id).Order("created_at DESC").Limit(latestPostsLimit)
	if !seePrivate {
		query = query.Where("is_public = ?", true)
	}
	var posts []models.JournalPost
	if err := query.Find(&posts).Error; err != nil {
		return serviceError(c, err)
	}

	out := make([]PostResponse, len(posts))
	for i, p := range posts {
		out[i] = PostResponse{
			ID:        p.ID,
			Title:     p.Title,
			Content:   p.Content,
			Excerpt:   p.Excerpt,
			IsPublic:  p.IsPublic,
			CreatedAt: p.CreatedAt,
		}
		if err := database.DB.WithContext(ctx).Model(&models.JournalPostView{}).Where("post_id = ?", p.ID).Count(&out[i].Views).Error; err != nil {
			return serviceError(c, err)
		}

		if authenticated {
			view := models.JournalPostView{PostID: p.ID, UserID: actor.UserID, ViewedAt: time.Now().UTC()}
			if err := database.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&view).Error; err != nil {
				logger.FromContext(ctx).Warn("record post view failed", zap.String("post_id", p.ID.String()), zap.Error(err))
			}
		}
	}
	return c.JSON(fiber.Map{"posts": out})
}

func SubscribeToMentor(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid mentor ID"})
	}
	var req SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx := c.UserContext()
	actor := mustActor(c)

	var count int64
	if err := database.DB.WithContext(ctx).Model(&models.MentorProfile{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return serviceError(c, err)
	}
	if count == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Mentor not found"})
	}

	if *req.Subscribe {
		sub := models.MentorSubscription{MentorID: id, StudentID: actor.UserID, IsActive: true, SubscribedAt: time.Now().UTC()}
		err := database.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "mentor_id"}, {Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_active", "subscribed_at"}),
		}).Create(&sub).Error
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Subscribed successfully", "subscribed": true})
	}

	err := database.DB.WithContext(ctx).Model(&models.MentorSubscription{}).
		Where("mentor_id = ? AND student_id = ?", id, actor.UserID).
		Update("is_active", false).Error
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Unsubscribed successfully", "subscribed": false})
}
