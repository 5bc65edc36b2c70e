package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mentorhub/marketplace/models"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AuditActionListingVisibility = "listing.visibility"
	AuditActionCatalogueSuppress = "catalogue.suppress"
	AuditActionCatalogueRestore  = "catalogue.restore"
	AuditActionCommissionRateSet = "config.commission_rate"
	AuditActionEnrollmentConfirm = "enrollment.confirm"
)

// AuditEntry describes one state change before it is persisted.
type AuditEntry struct {
	Action     string
	TargetType string
	TargetID   string
	OldValue   *string
	NewValue   *string
	Metadata   map[string]interface{}
}

type AuditFilter struct {
	Action   string
	TargetID string
	Limit    int
}

// AuditService appends immutable change events. Current values stay on the
// owning rows; the log is the history.
type AuditService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAuditService(db *gorm.DB, log *zap.Logger) *AuditService {
	return &AuditService{db: db, log: log.Named("audit")}
}

// Append writes the entry with tx so callers can commit it alongside the change.
func (s *AuditService) Append(ctx context.Context, tx *gorm.DB, actor Actor, entry AuditEntry) error {
	if tx == nil {
		tx = s.db
	}
	event := models.AuditEvent{
		ActorRole:  actor.Role,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		OldValue:   entry.OldValue,
		NewValue:   entry.NewValue,
	}
	if actor.UserID != uuid.Nil {
		id := actor.UserID
		event.ActorID = &id
	}
	if len(entry.Metadata) > 0 {
		event.Metadata = datatypes.JSONMap(entry.Metadata)
	}
	if err := tx.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	s.log.Info("audit event recorded",
		zap.String("action", entry.Action),
		zap.String("target_id", entry.TargetID),
		zap.String("actor_role", actor.Role),
	)
	return nil
}

// List returns events newest first.
func (s *AuditService) List(ctx context.Context, filter AuditFilter) ([]models.AuditEvent, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.TargetID != "" {
		query = query.Where("target_id = ?", filter.TargetID)
	}

	var events []models.AuditEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}

func strPtr(s string) *string {
	return &s
}
