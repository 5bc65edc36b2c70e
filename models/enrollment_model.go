package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EnrollmentPendingPayment = "pending_payment"
	EnrollmentConfirmed      = "confirmed"
	EnrollmentCancelled      = "cancelled"
)

// Enrollment records a student's seat on a project and the amounts of the
// checkout that paid for it.
type Enrollment struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	StudentID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"student_id"`
	Status              string     `gorm:"size:20;not null;default:'pending_payment'" json:"status"`
	AmountCents         int64      `gorm:"not null" json:"amount_cents"`
	ApplicationFeeCents int64      `gorm:"not null" json:"application_fee_cents"`
	Currency            string     `gorm:"size:3;not null" json:"currency"`
	CheckoutSessionID   *string    `gorm:"size:255;uniqueIndex" json:"checkout_session_id"`
	Progress            int        `gorm:"not null;default:0" json:"progress"`
	EnrolledAt          *time.Time `json:"enrolled_at"`

	Student User    `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}
