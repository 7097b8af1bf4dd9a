package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Answer struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	TestAttemptID    uuid.UUID      `json:"test_attempt_id" gorm:"type:uuid;not null;uniqueIndex:idx_attempt_question"`
	QuestionID       uint           `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	Question         Question       `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	UserAnswer       string         `json:"user_answer" gorm:"type:text;not null"`
	TimeSpentSeconds int            `json:"time_spent_seconds" gorm:"not null;default:0"`
	IsCorrect        *bool          `json:"is_correct,omitempty"`
	AIFeedback       string         `json:"ai_feedback,omitempty" gorm:"type:text"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
