package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TestAttempt struct {
	ID               uuid.UUID         `gorm:"type:uuid;primarykey" json:"id"`
	TestID           uint              `json:"test_id" gorm:"not null;index;uniqueIndex:idx_open_attempt,where:status = 'in_progress' AND deleted_at IS NULL"`
	Test             PlacementTest     `json:"test,omitempty" gorm:"foreignKey:TestID"`
	StudentID        string            `json:"student_id" gorm:"not null;index;uniqueIndex:idx_open_attempt"`
	Status           AttemptStatus     `json:"status" gorm:"not null;default:'in_progress';index"`
	StartedAt        time.Time         `json:"started_at"`
	ExpiresAt        time.Time         `json:"expires_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	CompletionReason *CompletionReason `json:"completion_reason,omitempty"`
	Score            *float64          `json:"score,omitempty"`
	Level            *string           `json:"level,omitempty"`
	Answers          []Answer          `json:"answers,omitempty" gorm:"foreignKey:TestAttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	DeletedAt        gorm.DeletedAt    `gorm:"index" json:"-"`
}

// BeforeCreate assigns the attempt id when the caller did not.
func (a *TestAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ExpiredAt reports whether the attempt is still open past its expiry plus grace.
func (a *TestAttempt) ExpiredAt(now time.Time, grace time.Duration) bool {
	return a.Status == AttemptInProgress && now.After(a.ExpiresAt.Add(grace))
}
