package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	MentorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"mentor_id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null" json:"student_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`

	Student User `gorm:"foreignKey:StudentID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}
