package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mentorhub/marketplace/database"
	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/services"
	"gorm.io/gorm"
)

type SetVisibilityRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type CommissionRateRequest struct {
	Rate *float64 `json:"rate" validate:"required"`
}

type AdminMentorSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	IsVerified     bool      `json:"is_verified"`
	ActiveProjects int64     `json:"active_projects"`
	TotalProjects  int64     `json:"total_projects"`
	EarningsCents  int64     `json:"earnings_cents"`
	FeesCents      int64     `json:"fees_cents"`
	HasPayoutSetup bool      `json:"has_payout_account"`
}

type DashboardAnalyticsResponse struct {
	TotalStudents         int64   `json:"total_students"`
	TotalMentors          int64   `json:"total_mentors"`
	ActiveProjects        int64   `json:"active_projects"`
	ConfirmedEnrollments  int64   `json:"confirmed_enrollments"`
	GrossVolumeCents      int64   `json:"gross_volume_cents"`
	PlatformFeesCents     int64   `json:"platform_fees_cents"`
	EnrollmentsLast30Days int64   `json:"enrollments_last_30_days"`
	CommissionRate        float64 `json:"commission_rate"`
}

func AdminListProjects(c *fiber.Ctx) error {
	projects, stats, err := services.Listings.ListAll(c.UserContext(), mustActor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"projects":     toProjectResponses(c.UserContext(), projects),
		"stats":        stats,
		"publish_mode": services.Listings.PublishMode(),
	})
}

func AdminSetProjectVisibility(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid project ID"})
	}
	var req SetVisibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	project, err := services.Listings.AdminSetVisibility(c.UserContext(), mustActor(c), id, *req.IsActive)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(project)
}

func AdminSuppressMentor(c *fiber.Ctx) error {
	return adminCatalogue(c, false)
}

func AdminRestoreMentor(c *fiber.Ctx) error {
	return adminCatalogue(c, true)
}

func adminCatalogue(c *fiber.Ctx, restore bool) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid mentor ID"})
	}
	return setCatalogue(c, id, restore)
}

func setCatalogue(c *fiber.Ctx, mentorID uuid.UUID, restore bool) error {
	var (
		affected int64
		err      error
	)
	if restore {
		affected, err = services.Listings.MentorBulkRestore(c.UserContext(), mustActor(c), mentorID)
	} else {
		affected, err = services.Listings.MentorBulkSuppress(c.UserContext(), mustActor(c), mentorID)
	}
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"mentor_id":         mentorID,
		"is_active":         restore,
		"listings_affected": affected,
	})
}

// AdminListMentors reports each mentor's catalogue and confirmed net earnings.
func AdminListMentors(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var mentors []models.MentorProfile
	if err := database.DB.WithContext(ctx).Preload("User").Order("created_at desc").Find(&mentors).Error; err != nil {
		return serviceError(c, err)
	}

	out := make([]AdminMentorSummary, len(mentors))
	for i, m := range mentors {
		s := AdminMentorSummary{
			ID:             m.ID,
			Name:           m.User.Name,
			Email:          m.User.Email,
			IsVerified:     m.IsVerified,
			HasPayoutSetup: m.StripeAccountID != nil && *m.StripeAccountID != "",
		}
		if err := database.DB.WithContext(ctx).Model(&models.Project{}).Where("mentor_id = ?", m.ID).Count(&s.TotalProjects).Error; err != nil {
			return serviceError(c, err)
		}
		if err := database.DB.WithContext(ctx).Model(&models.Project{}).Scopes(services.Discoverable).
			Where("mentor_id = ?", m.ID).Count(&s.ActiveProjects).Error; err != nil {
			return serviceError(c, err)
		}

		var totals struct {
			Gross int64
			Fees  int64
		}
		err := database.DB.WithContext(ctx).Model(&models.Enrollment{}).
			Select("COALESCE(SUM(enrollments.amount_cents), 0) AS gross, COALESCE(SUM(enrollments.application_fee_cents), 0) AS fees").
			Joins("JOIN projects ON projects.id = enrollments.project_id").
			Where("projects.mentor_id = ? AND enrollments.status = ?", m.ID, models.EnrollmentConfirmed).
			Scan(&totals).Error
		if err != nil {
			return serviceError(c, err)
		}
		s.FeesCents = totals.Fees
		s.EarningsCents = services.NetAmount(totals.Gross, totals.Fees)
		out[i] = s
	}
	return c.JSON(out)
}

func GetCommissionRate(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"rate":         services.SystemConfig.GetCommissionRate(c.UserContext()),
		"default_rate": services.SystemConfig.DefaultCommissionRate(),
	})
}

func UpdateCommissionRate(c *fiber.Ctx) error {
	actor := mustActor(c)
	if !services.Authz.CanManageConfig(actor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req CommissionRateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := services.SystemConfig.SetCommissionRate(c.UserContext(), actor, *req.Rate); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"rate": services.SystemConfig.GetCommissionRate(c.UserContext())})
}

func ListCategorySuggestions(c *fiber.Ctx) error {
	query := database.DB.WithContext(c.UserContext()).Order("created_at desc")
	if status := strings.ToUpper(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	var suggestions []models.CategorySuggestion
	if err := query.Find(&suggestions).Error; err != nil {
		return serviceError(c, err)
	}
	return c.JSON(suggestions)
}

func ReviewCategorySuggestion(c *fiber.Ctx) error {
	type Request struct {
		Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid suggestion ID"})
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res := database.DB.WithContext(c.UserContext()).Model(&models.CategorySuggestion{}).
		Where("id = ?", id).Update("status", req.Status)
	if res.Error != nil {
		return serviceError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Suggestion not found"})
	}
	return c.JSON(fiber.Map{"message": "Suggestion updated", "status": req.Status})
}

func ListAuditEvents(c *fiber.Ctx) error {
	if !services.Authz.CanViewAuditLog(mustActor(c)) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	events, err := services.Audit.List(c.UserContext(), services.AuditFilter{
		Action:   c.Query("action"),
		TargetID: c.Query("target_id"),
		Limit:    c.QueryInt("limit", 100),
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(events)
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	ctx := c.UserContext()
	db := database.DB.WithContext(ctx)
	var response DashboardAnalyticsResponse

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.Model(&models.User{}).Where("role = ?", models.RoleStudent), &response.TotalStudents},
		{db.Model(&models.MentorProfile{}), &response.TotalMentors},
		{db.Model(&models.Project{}).Scopes(services.Discoverable), &response.ActiveProjects},
		{db.Model(&models.Enrollment{}).Where("status = ?", models.EnrollmentConfirmed), &response.ConfirmedEnrollments},
		{db.Model(&models.Enrollment{}).Where("status = ? AND enrolled_at > ?", models.EnrollmentConfirmed, time.Now().AddDate(0, 0, -30)), &response.EnrollmentsLast30Days},
	}
	for _, q := range counts {
		if err := q.query.Count(q.dest).Error; err != nil {
			return serviceError(c, err)
		}
	}

	var totals struct {
		Gross int64
		Fees  int64
	}
	err := db.Model(&models.Enrollment{}).
		Select("COALESCE(SUM(amount_cents), 0) AS gross, COALESCE(SUM(application_fee_cents), 0) AS fees").
		Where("status = ?", models.EnrollmentConfirmed).
		Scan(&totals).Error
	if err != nil {
		return serviceError(c, err)
	}
	response.GrossVolumeCents = totals.Gross
	response.PlatformFeesCents = totals.Fees
	response.CommissionRate = services.SystemConfig.GetCommissionRate(ctx)

	return c.JSON(response)
}

// GenerateTransactionReport exports confirmed enrollments with their fee split as CSV.
func GenerateTransactionReport(c *fiber.Ctx) error {
	startDateStr := c.Query("start_date", time.Now().AddDate(0, -1, 0).Format("2006-01-02"))
	endDateStr := c.Query("end_date", time.Now().Format("2006-01-02"))

	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start_date format. Use YYYY-MM-DD."})
	}
	endDate, err := time.Parse("2006-01-02", endDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end_date format. Use YYYY-MM-DD."})
	}
	endDate = endDate.Add(23*time.Hour + 59*time.Minute + 59*time.Second)

	var enrollments []models.Enrollment
	err = database.DB.WithContext(c.UserContext()).
		Preload("Student").
		Preload("Project").
		Where("status = ? AND enrolled_at BETWEEN ? AND ?", models.EnrollmentConfirmed, startDate, endDate).
		Order("enrolled_at desc").
		Find(&enrollments).Error
	if err != nil {
		return serviceError(c, err)
	}

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)

	headers := []string{"Enrollment ID", "Date", "Student Name", "Project", "Currency", "Gross", "Platform Fee", "Mentor Net", "Checkout Session"}
	if err := w.Write(headers); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV header"})
	}

	for _, e := range enrollments {
		var date string
		if e.EnrolledAt != nil {
			date = e.EnrolledAt.Format("2006-01-02 15:04")
		}
		row := []string{
			e.ID.String(),
			date,
			e.Student.Name,
			e.Project.Title,
			strings.ToUpper(e.Currency),
			strconv.FormatInt(e.AmountCents, 10),
			strconv.FormatInt(e.ApplicationFeeCents, 10),
			strconv.FormatInt(services.NetAmount(e.AmountCents, e.ApplicationFeeCents), 10),
			derefString(e.CheckoutSessionID),
		}
		if err := w.Write(row); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV row"})
		}
	}
	w.Flush()

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s_to_%s.csv\"", startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))

	return c.Send(b.Bytes())
}

func GetAllUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	offset := (page - 1) * limit

	var users []models.User
	var totalUsers int64

	query := database.DB.WithContext(c.UserContext()).Model(&models.User{})
	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	if err := query.Count(&totalUsers).Error; err != nil {
		return serviceError(c, err)
	}
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"data": users,
		"meta": fiber.Map{
			"total_users":  totalUsers,
			"total_pages":  int(math.Ceil(float64(totalUsers) / float64(limit))),
			"current_page": page,
		},
	})
}

func ToggleUserStatus(c *fiber.Ctx) error {
	type Request struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}
	id, ok := uuidParam(c, "userId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res := database.DB.WithContext(c.UserContext()).Model(&models.User{}).Where("id = ?", id).Update("is_active", *req.IsActive)
	if res.Error != nil {
		return serviceError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(fiber.Map{"message": "User status updated successfully."})
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
