package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const ConfigKeyCommissionRate = "COMMISSION_RATE"

// SystemConfig is a key/value row of platform settings. Values are
// string-encoded and parsed by their owning service.
type SystemConfig struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditEvent is an append-only record of a privileged state change.
type AuditEvent struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID    *uuid.UUID        `gorm:"type:uuid;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:20;not null" json:"actor_role"`
	Action     string            `gorm:"size:60;not null;index" json:"action"`
	TargetType string            `gorm:"size:40;not null" json:"target_type"`
	TargetID   string            `gorm:"size:100;not null;index" json:"target_id"`
	OldValue   *string           `gorm:"size:255" json:"old_value"`
	NewValue   *string           `gorm:"size:255" json:"new_value"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

func (a *AuditEvent) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
