package model

import (
	"time"

	"gorm.io/gorm"
)

type PlacementTest struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Title           string         `json:"title" gorm:"not null;uniqueIndex"`
	Description     string         `json:"description,omitempty" gorm:"type:text"`
	DurationMinutes int            `json:"duration_minutes" gorm:"not null"`
	Questions       []Question     `json:"questions,omitempty" gorm:"foreignKey:TestID"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t PlacementTest) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}
