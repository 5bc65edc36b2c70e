package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SuggestionPending  = "PENDING"
	SuggestionApproved = "APPROVED"
	SuggestionRejected = "REJECTED"
)

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Slug        string    `gorm:"size:120;not null;uniqueIndex" json:"slug"`
	Description *string   `gorm:"type:text" json:"description"`
	Icon        *string   `gorm:"size:50" json:"icon"`
	Color       *string   `gorm:"size:20" json:"color"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type CategorySuggestion struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Description  *string   `gorm:"type:text" json:"description"`
	ContactEmail string    `gorm:"size:255;not null" json:"contact_email"`
	ContactName  *string   `gorm:"size:255" json:"contact_name"`
	Comment      *string   `gorm:"type:text" json:"comment"`
	Status       string    `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *CategorySuggestion) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
