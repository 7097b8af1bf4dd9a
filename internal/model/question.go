package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Question struct {
	ID          uint                        `gorm:"primarykey" json:"id"`
	TestID      uint                        `json:"test_id" gorm:"not null;index"`
	Prompt      string                      `json:"question" gorm:"type:text;not null"`
	Type        QuestionType                `json:"type" gorm:"not null"`
	Category    string                      `json:"category" gorm:"not null;default:'general'"` // grammar, vocabulary, reading, ...
	OrderInTest int                         `json:"order_in_test" gorm:"not null"`
	ImageURL    *string                     `json:"image,omitempty"`
	Options     datatypes.JSONSlice[string] `json:"options,omitempty"`
	// AnswerKey holds the accepted answers; never serialized to students.
	AnswerKey datatypes.JSONSlice[string] `json:"-"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
	DeletedAt gorm.DeletedAt              `gorm:"index" json:"-"`
}
