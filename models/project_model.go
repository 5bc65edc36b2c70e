package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ProjectCategories = []string{"TECHNOLOGY", "BUSINESS", "DESIGN", "ACADEMIC", "LANGUAGE", "CREATIVE", "OTHER"}
	ProjectPurposes   = []string{"MONETARIZE", "LEISURE", "CAREER", "ACADEMIC"}
	Difficulties      = []string{"BEGINNER", "INTERMEDIATE", "ADVANCED"}
)

// Project is a mentor's marketplace listing. IsActive is the only
// discoverability flag; there is no separate draft or review column.
type Project struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	MentorID         uuid.UUID                   `gorm:"<-:create;type:uuid;not null;index" json:"mentor_id"`
	Title            string                      `gorm:"size:255;not null" json:"title"`
	Slug             string                      `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description      string                      `gorm:"type:text;not null" json:"description"`
	ShortDescription *string                     `gorm:"size:500" json:"short_description"`
	Category         string                      `gorm:"size:30;not null;index" json:"category"`
	Purposes         datatypes.JSONSlice[string] `json:"purposes"`
	LearningPurpose  *string                     `gorm:"size:30" json:"learning_purpose"`
	Difficulty       string                      `gorm:"size:20;not null" json:"difficulty"`
	DurationWeeks    int                         `gorm:"not null" json:"duration"`
	PriceCents       int64                       `gorm:"not null" json:"price_cents"`
	Currency         string                      `gorm:"size:3;not null;default:'usd'" json:"currency"`
	MaxStudents      int                         `gorm:"not null" json:"max_students"`
	CurrentStudents  int                         `gorm:"not null;default:0" json:"current_students"`
	Objectives       datatypes.JSONSlice[string] `json:"objectives"`
	Prerequisites    datatypes.JSONSlice[string] `json:"prerequisites"`
	Tools            datatypes.JSONSlice[string] `json:"tools"`
	Deliverables     datatypes.JSONSlice[string] `json:"deliverables"`
	IsActive         bool                        `gorm:"not null;index" json:"is_active"`
	IsFeatured       bool                        `gorm:"not null" json:"is_featured"`

	Mentor      MentorProfile `gorm:"foreignKey:MentorID" json:"mentor,omitempty"`
	Enrollments []Enrollment  `gorm:"foreignKey:ProjectID" json:"-"`
	Reviews     []Review      `gorm:"foreignKey:ProjectID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
