package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleMentor  = "mentor"
	RoleAdmin   = "admin"
)

type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string    `gorm:"size:255;not null" json:"name"`
	Email             string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password          string    `gorm:"not null" json:"-"`
	Role              string    `gorm:"size:20;not null;default:'student'" json:"role"`
	ProfilePictureURL *string   `gorm:"size:255" json:"profile_picture_url"`
	IsActive          bool      `gorm:"not null" json:"is_active"`

	MentorProfile  *MentorProfile  `gorm:"foreignKey:UserID" json:"mentor_profile,omitempty"`
	StudentProfile *StudentProfile `gorm:"foreignKey:UserID" json:"student_profile,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}
