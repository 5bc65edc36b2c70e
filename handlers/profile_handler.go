package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mentorhub/marketplace/database"
	"github.com/mentorhub/marketplace/models"
)

type UpdateProfileRequest struct {
	Name              *string `json:"name" validate:"omitempty,min=2,max=255"`
	ProfilePictureURL *string `json:"profile_picture_url" validate:"omitempty,url"`
}

type UpdateMentorProfileRequest struct {
	Bio             *string  `json:"bio"`
	Experience      *string  `json:"experience"`
	Specialties     []string `json:"specialties"`
	Qualifications  []string `json:"qualifications"`
	Languages       []string `json:"languages"`
	TeachingMethods []string `json:"teaching_methods"`
	Website         *string  `json:"website" validate:"omitempty,url"`
	Linkedin        *string  `json:"linkedin" validate:"omitempty,url"`
	Github          *string  `json:"github" validate:"omitempty,url"`
	Portfolio       *string  `json:"portfolio" validate:"omitempty,url"`
	HourlyRate      *float64 `json:"hourly_rate" validate:"omitempty,min=0"`
}

func GetProfile(c *fiber.Ctx) error {
	actor := mustActor(c)
	var user models.User
	if err := database.DB.WithContext(c.UserContext()).Preload("StudentProfile").Where("id = ?", actor.UserID).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user)
}

func UpdateProfile(c *fiber.Ctx) error {
	actor := mustActor(c)
	var user models.User
	if err := database.DB.WithContext(c.UserContext()).Where("id = ?", actor.UserID).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.ProfilePictureURL != nil {
		user.ProfilePictureURL = req.ProfilePictureURL
	}

	if err := database.DB.WithContext(c.UserContext()).Save(&user).Error; err != nil {
		return serviceError(c, err)
	}
	return c.JSON(user)
}

func GetMentorProfile(c *fiber.Ctx) error {
	actor := mustActor(c)
	var profile models.MentorProfile
	if err := database.DB.WithContext(c.UserContext()).Preload("User").First(&profile, "id = ?", *actor.MentorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Mentor profile not found"})
	}
	return c.JSON(profile)
}

// UpdateMentorProfile applies only the fields present in the request.
func UpdateMentorProfile(c *fiber.Ctx) error {
	actor := mustActor(c)
	var profile models.MentorProfile
	if err := database.DB.WithContext(c.UserContext()).First(&profile, "id = ?", *actor.MentorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Mentor profile not found"})
	}

	var req UpdateMentorProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Bio != nil {
		profile.Bio = req.Bio
	}
	if req.Experience != nil {
		profile.Experience = req.Experience
	}
	if req.Specialties != nil {
		profile.Specialties = req.Specialties
	}
	if req.Qualifications != nil {
		profile.Qualifications = req.Qualifications
	}
	if req.Languages != nil {
		profile.Languages = req.Languages
	}
	if req.TeachingMethods != nil {
		profile.TeachingMethods = req.TeachingMethods
	}
	if req.Website != nil {
		profile.Website = req.Website
	}
	if req.Linkedin != nil {
		profile.Linkedin = req.Linkedin
	}
	if req.Github != nil {
		profile.Github = req.Github
	}
	if req.Portfolio != nil {
		profile.Portfolio = req.Portfolio
	}
	if req.HourlyRate != nil {
		profile.HourlyRate = *req.HourlyRate
	}

	// Rating, verification and the payout account are owned elsewhere.
	err := database.DB.WithContext(c.UserContext()).Model(&profile).
		Select("bio", "experience", "specialties", "qualifications", "languages", "teaching_methods",
			"website", "linkedin", "github", "portfolio", "hourly_rate").
		Updates(&profile).Error
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(profile)
}
