package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MentorProfile struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Bio             *string                     `gorm:"type:text" json:"bio"`
	Specialties     datatypes.JSONSlice[string] `json:"specialties"`
	Experience      *string                     `gorm:"type:text" json:"experience"`
	Qualifications  datatypes.JSONSlice[string] `json:"qualifications"`
	Languages       datatypes.JSONSlice[string] `json:"languages"`
	TeachingMethods datatypes.JSONSlice[string] `json:"teaching_methods"`
	Website         *string                     `gorm:"size:255" json:"website"`
	Linkedin        *string                     `gorm:"size:255" json:"linkedin"`
	Github          *string                     `gorm:"size:255" json:"github"`
	Portfolio       *string                     `gorm:"size:255" json:"portfolio"`
	HourlyRate      float64                     `gorm:"type:numeric(10,2);default:0" json:"hourly_rate"`
	IsVerified      bool                        `gorm:"not null" json:"is_verified"`
	Rating          float64                     `gorm:"not null;default:0" json:"rating"`
	TotalReviews    int                         `gorm:"not null;default:0" json:"total_reviews"`

	// StripeAccountID is the connected payout account; its status lives with the provider.
	StripeAccountID *string `gorm:"size:255;uniqueIndex" json:"stripe_account_id"`

	User     User      `gorm:"foreignKey:UserID" json:"user"`
	Projects []Project `gorm:"foreignKey:MentorID" json:"-"`
	Reviews  []Review  `gorm:"foreignKey:MentorID" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (m *MentorProfile) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

type StudentProfile struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Bio       *string                     `gorm:"type:text" json:"bio"`
	Interests datatypes.JSONSlice[string] `json:"interests"`
	Goals     *string                     `gorm:"type:text" json:"goals"`
	Level     *string                     `gorm:"size:50" json:"level"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (s *StudentProfile) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
