package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JournalPost struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	MentorID    uuid.UUID                   `gorm:"type:uuid;not null;index" json:"mentor_id"`
	Title       string                      `gorm:"size:255;not null" json:"title"`
	Content     string                      `gorm:"type:text;not null" json:"content"`
	Excerpt     *string                     `gorm:"size:500" json:"excerpt"`
	IsPublic    bool                        `gorm:"not null" json:"is_public"`
	Attachments datatypes.JSONSlice[string] `json:"attachments"`

	Views []JournalPostView `gorm:"foreignKey:PostID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *JournalPost) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

type JournalPostView struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_post_viewer" json:"post_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_post_viewer" json:"user_id"`
	ViewedAt time.Time `gorm:"not null" json:"viewed_at"`
}

func (v *JournalPostView) BeforeCreate(tx *gorm.DB) error {
	assignID(&v.ID)
	return nil
}

type MentorSubscription struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MentorID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mentor_student" json:"mentor_id"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mentor_student" json:"student_id"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	SubscribedAt time.Time `gorm:"not null" json:"subscribed_at"`

	Student User `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

func (s *MentorSubscription) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
