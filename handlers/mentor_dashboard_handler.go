package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mentorhub/marketplace/database"
	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/services"
	"gorm.io/gorm"
)

type CreateJournalPostRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Content     string   `json:"content" validate:"required"`
	Excerpt     *string  `json:"excerpt" validate:"omitempty,max=500"`
	IsPublic    bool     `json:"is_public"`
	Attachments []string `json:"attachments" validate:"omitempty,dive,url"`
}

type MentorStudent struct {
	Student     models.User   `json:"student"`
	Enrollments []StudentSeat `json:"enrollments"`
}

type StudentSeat struct {
	EnrollmentID uuid.UUID  `json:"enrollment_id"`
	ProjectID    uuid.UUID  `json:"project_id"`
	ProjectTitle string     `json:"project_title"`
	Progress     int        `json:"progress"`
	EnrolledAt   *time.Time `json:"enrolled_at"`
}

// GetMyProjects lists the caller's projects in every visibility state.
func GetMyProjects(c *fiber.Ctx) error {
	actor := mustActor(c)
	projects, err := services.Listings.ListForMentor(c.UserContext(), *actor.MentorID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(toProjectResponses(c.UserContext(), projects))
}

func SuppressMyCatalogue(c *fiber.Ctx) error {
	return setCatalogue(c, *mustActor(c).MentorID, false)
}

func RestoreMyCatalogue(c *fiber.Ctx) error {
	return setCatalogue(c, *mustActor(c).MentorID, true)
}

func GetMyJournalPosts(c *fiber.Ctx) error {
	actor := mustActor(c)
	var posts []models.JournalPost
	err := database.DB.WithContext(c.UserContext()).
		Where("mentor_id = ?", *actor.MentorID).
		Order("created_at desc").
		Find(&posts).Error
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(posts)
}

func CreateJournalPost(c *fiber.Ctx) error {
	actor := mustActor(c)
	if !services.Authz.CanWriteJournal(actor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req CreateJournalPostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	post := models.JournalPost{
		MentorID:    *actor.MentorID,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		IsPublic:    req.IsPublic,
		Attachments: req.Attachments,
	}
	if err := database.DB.WithContext(c.UserContext()).Create(&post).Error; err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func DeleteJournalPost(c *fiber.Ctx) error {
	actor := mustActor(c)
	id, ok := uuidParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post ID"})
	}

	var post models.JournalPost
	err := database.DB.WithContext(c.UserContext()).First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	}
	if err != nil {
		return serviceError(c, err)
	}
	if post.MentorID != *actor.MentorID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only delete your own posts"})
	}

	err = database.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.JournalPostView{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func GetMySubscribers(c *fiber.Ctx) error {
	actor := mustActor(c)
	var subs []models.MentorSubscription
	err := database.DB.WithContext(c.UserContext()).
		Preload("Student").
		Where("mentor_id = ? AND is_active = ?", *actor.MentorID, true).
		Order("subscribed_at desc").
		Find(&subs).Error
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"subscribers": subs, "total": len(subs)})
}

// GetMyStudents groups confirmed enrollments on the caller's projects by student.
func GetMyStudents(c *fiber.Ctx) error {
	actor := mustActor(c)
	var enrollments []models.Enrollment
	err := database.DB.WithContext(c.UserContext()).
		Preload("Student").
		Preload("Project").
		Joins("JOIN projects ON projects.id = enrollments.project_id").
		Where("projects.mentor_id = ? AND enrollments.status = ?", *actor.MentorID, models.EnrollmentConfirmed).
		Order("enrollments.enrolled_at desc").
		Find(&enrollments).Error
	if err != nil {
		return serviceError(c, err)
	}

	index := map[uuid.UUID]int{}
	students := []MentorStudent{}
	for _, e := range enrollments {
		i, seen := index[e.StudentID]
		if !seen {
			i = len(students)
			index[e.StudentID] = i
			students = append(students, MentorStudent{Student: e.Student})
		}
		students[i].Enrollments = append(students[i].Enrollments, StudentSeat{
			EnrollmentID: e.ID,
			ProjectID:    e.ProjectID,
			ProjectTitle: e.Project.Title,
			Progress:     e.Progress,
			EnrolledAt:   e.EnrolledAt,
		})
	}
	return c.JSON(students)
}
