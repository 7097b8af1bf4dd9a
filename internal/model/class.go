package model

import (
	"time"

	"gorm.io/gorm"
)

// Class is an offering a student can be recommended into after placement.
type Class struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Name        string         `json:"name" gorm:"not null;uniqueIndex"`
	Level       string         `json:"level" gorm:"not null;index"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	Schedule    string         `json:"schedule,omitempty"`
	Price       int64          `json:"price"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
