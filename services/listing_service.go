package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	config "github.com/mentorhub/marketplace/configs"
	"github.com/mentorhub/marketplace/metrics"
	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	visibilityTriggerAdmin = "admin"
	visibilityTriggerBulk  = "bulk"
)

// Discoverable restricts a project query to listings students may see.
// Every student-facing read applies it.
func Discoverable(db *gorm.DB) *gorm.DB {
	return db.Where("projects.is_active = ?", true)
}

type CreateListingInput struct {
	Title            string
	Description      string
	ShortDescription *string
	Category         string
	Purposes         []string
	LearningPurpose  *string
	Difficulty       string
	DurationWeeks    int
	PriceCents       int64
	Currency         string
	MaxStudents      int
	Objectives       []string
	Prerequisites    []string
	Tools            []string
	Deliverables     []string
}

type ListingFilter struct {
	Category   string
	Difficulty string
	MentorID   *uuid.UUID
}

// ListingStats buckets the whole catalogue for the admin console.
// Pending counts every suppressed listing whatever suppressed it.
type ListingStats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Pending int64 `json:"pending"`
}

// Mailer delivers transactional email. Failures are logged by callers.
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, htmlContent string) error
}

type ListingService struct {
	db          *gorm.DB
	log         *zap.Logger
	policy      *Policy
	audit       *AuditService
	mailer      Mailer
	publishMode string
}

type ListingParams struct {
	DB          *gorm.DB
	Log         *zap.Logger
	Policy      *Policy
	Audit       *AuditService
	Mailer      Mailer
	PublishMode string
}

func NewListingService(p ListingParams) *ListingService {
	mode := p.PublishMode
	if mode != config.PublishModeReview {
		mode = config.PublishModeImmediate
	}
	return &ListingService{
		db:          p.DB,
		log:         p.Log.Named("listing.visibility"),
		policy:      p.Policy,
		audit:       p.Audit,
		mailer:      p.Mailer,
		publishMode: mode,
	}
}

func (s *ListingService) PublishMode() string {
	return s.publishMode
}

// InitialVisibility is the state a new listing is created in.
func (s *ListingService) InitialVisibility() bool {
	return s.publishMode == config.PublishModeImmediate
}

func (s *ListingService) Create(ctx context.Context, actor Actor, in CreateListingInput) (*models.Project, error) {
	if !s.policy.CanCreateListing(actor) || actor.MentorID == nil {
		return nil, ErrForbidden
	}

	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "usd"
	}

	project := models.Project{
		MentorID:         *actor.MentorID,
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		ShortDescription: in.ShortDescription,
		Category:         in.Category,
		Purposes:         in.Purposes,
		LearningPurpose:  in.LearningPurpose,
		Difficulty:       in.Difficulty,
		DurationWeeks:    in.DurationWeeks,
		PriceCents:       in.PriceCents,
		Currency:         currency,
		MaxStudents:      in.MaxStudents,
		Objectives:       compact(in.Objectives),
		Prerequisites:    compact(in.Prerequisites),
		Tools:            compact(in.Tools),
		Deliverables:     compact(in.Deliverables),
		IsActive:         s.InitialVisibility(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := utils.GenerateUniqueSlug(tx, "projects", project.Title)
		if err != nil {
			return fmt.Errorf("generate slug: %w", err)
		}
		project.Slug = slug
		return tx.Create(&project).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.log.Info("listing created",
		zap.String("project_id", project.ID.String()),
		zap.String("mentor_id", project.MentorID.String()),
		zap.Bool("is_active", project.IsActive),
		zap.String("publish_mode", s.publishMode),
	)
	return &project, nil
}

// GetDiscoverable returns ErrListingNotFound for suppressed listings too.
func (s *ListingService) GetDiscoverable(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Scopes(Discoverable).
		Preload("Mentor.User").
		First(&project, "projects.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &project, nil
}

func (s *ListingService) ListDiscoverable(ctx context.Context, filter ListingFilter) ([]models.Project, error) {
	query := s.db.WithContext(ctx).Scopes(Discoverable).Preload("Mentor.User").Order("projects.created_at DESC")
	if filter.Category != "" {
		query = query.Where("projects.category = ?", filter.Category)
	}
	if filter.Difficulty != "" {
		query = query.Where("projects.difficulty = ?", filter.Difficulty)
	}
	if filter.MentorID != nil {
		query = query.Where("projects.mentor_id = ?", *filter.MentorID)
	}

	var projects []models.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// ListForMentor returns the mentor's own catalogue in every state.
func (s *ListingService) ListForMentor(ctx context.Context, mentorID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("mentor_id = ?", mentorID).
		Preload("Enrollments.Student").
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list mentor projects: %w", err)
	}
	return projects, nil
}

// ListAll is the moderation view: every listing regardless of state.
func (s *ListingService) ListAll(ctx context.Context, actor Actor) ([]models.Project, ListingStats, error) {
	var stats ListingStats
	if !s.policy.CanModerateListings(actor) {
		return nil, stats, ErrForbidden
	}

	var projects []models.Project
	if err := s.db.WithContext(ctx).Preload("Mentor.User").Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, stats, fmt.Errorf("list projects: %w", err)
	}
	for _, p := range projects {
		stats.Total++
		if p.IsActive {
			stats.Active++
		} else {
			stats.Pending++
		}
	}
	return projects, stats, nil
}

// AdminSetVisibility moves one listing to the requested state. Either
// direction is allowed and repeating a call is harmless.
func (s *ListingService) AdminSetVisibility(ctx context.Context, actor Actor, listingID uuid.UUID, isActive bool) (*models.Project, error) {
	if !s.policy.CanModerateListings(actor) {
		return nil, ErrForbidden
	}

	var project models.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, "id = ?", listingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		previous := project.IsActive

		if err := tx.Model(&project).Update("is_active", isActive).Error; err != nil {
			return err
		}
		project.IsActive = isActive

		if s.audit == nil {
			return nil
		}
		return s.audit.Append(ctx, tx, actor, AuditEntry{
			Action:     AuditActionListingVisibility,
			TargetType: "project",
			TargetID:   listingID.String(),
			OldValue:   strPtr(strconv.FormatBool(previous)),
			NewValue:   strPtr(strconv.FormatBool(isActive)),
		})
	})
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("set visibility: %w", err)
	}

	metrics.VisibilityTransitions.WithLabelValues(visibilityTriggerAdmin, strconv.FormatBool(isActive)).Inc()
	s.log.Info("listing visibility set",
		zap.String("project_id", listingID.String()),
		zap.Bool("is_active", isActive),
		zap.String("actor_id", actor.UserID.String()),
	)
	return &project, nil
}

// MentorBulkSuppress hides every listing owned by mentorID and no others.
func (s *ListingService) MentorBulkSuppress(ctx context.Context, actor Actor, mentorID uuid.UUID) (int64, error) {
	affected, err := s.setCatalogueVisibility(ctx, actor, mentorID, false)
	if err != nil {
		return 0, err
	}
	if !ownsMentor(actor, mentorID) {
		s.notifySuppressed(mentorID, affected)
	}
	return affected, nil
}

// MentorBulkRestore makes every listing owned by mentorID discoverable again.
func (s *ListingService) MentorBulkRestore(ctx context.Context, actor Actor, mentorID uuid.UUID) (int64, error) {
	return s.setCatalogueVisibility(ctx, actor, mentorID, true)
}

func (s *ListingService) setCatalogueVisibility(ctx context.Context, actor Actor, mentorID uuid.UUID, isActive bool) (int64, error) {
	if !s.policy.CanSetCatalogueVisibility(actor, mentorID) {
		return 0, ErrForbidden
	}

	action := AuditActionCatalogueRestore
	if !isActive {
		action = AuditActionCatalogueSuppress
	}

	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.MentorProfile{}).Where("id = ?", mentorID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrMentorNotFound
		}

		result := tx.Model(&models.Project{}).Where("mentor_id = ?", mentorID).Update("is_active", isActive)
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected

		if s.audit == nil {
			return nil
		}
		return s.audit.Append(ctx, tx, actor, AuditEntry{
			Action:     action,
			TargetType: "mentor",
			TargetID:   mentorID.String(),
			NewValue:   strPtr(strconv.FormatBool(isActive)),
			Metadata:   map[string]interface{}{"listings_affected": affected},
		})
	})
	if err != nil {
		if errors.Is(err, ErrMentorNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("set catalogue visibility: %w", err)
	}

	metrics.VisibilityTransitions.WithLabelValues(visibilityTriggerBulk, strconv.FormatBool(isActive)).Add(float64(affected))
	s.log.Info("catalogue visibility set",
		zap.String("mentor_id", mentorID.String()),
		zap.Bool("is_active", isActive),
		zap.Int64("listings", affected),
		zap.String("actor_role", actor.Role),
	)
	return affected, nil
}

func (s *ListingService) notifySuppressed(mentorID uuid.UUID, count int64) {
	if s.mailer == nil || count == 0 {
		return
	}
	var mentor models.MentorProfile
	if err := s.db.Preload("User").First(&mentor, "id = ?", mentorID).Error; err != nil {
		s.log.Warn("could not load mentor for suppression notice", zap.Error(err))
		return
	}

	go func() {
		subject := "Your projects have been hidden from the marketplace"
		body := fmt.Sprintf(
			"<p>Hello %s,</p><p>An administrator has hidden %d of your projects from students. "+
				"Please contact support if you believe this is a mistake.</p>",
			mentor.User.Name, count,
		)
		if err := s.mailer.Send(context.Background(), mentor.User.Email, mentor.User.Name, subject, body); err != nil {
			s.log.Warn("suppression notice failed", zap.String("mentor_id", mentorID.String()), zap.Error(err))
		}
	}()
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
