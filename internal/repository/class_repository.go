package repository

import (
	"github.com/lshigami/placement/internal/model"
	"gorm.io/gorm"
)

type ClassRepository interface {
	Create(class *model.Class) error
	FindByLevel(level string) ([]model.Class, error)
}

type classRepository struct {
	db *gorm.DB
}

func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(class *model.Class) error {
	return translate(r.db.Create(class).Error)
}

func (r *classRepository) FindByLevel(level string) ([]model.Class, error) {
	var classes []model.Class
	if err := r.db.Where("level = ?", level).Order("name ASC").Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}
