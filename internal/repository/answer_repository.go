package repository

import (
	"github.com/google/uuid"
	"github.com/lshigami/placement/internal/model"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	// Create fails with ErrDuplicate when the question already has an answer
	// in this attempt.
	Create(answer *model.Answer) error
	FindByAttempt(attemptID uuid.UUID) ([]model.Answer, error)
	Update(answer *model.Answer) error
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Create(answer *model.Answer) error {
	return translate(r.db.Create(answer).Error)
}

func (r *answerRepository) FindByAttempt(attemptID uuid.UUID) ([]model.Answer, error) {
	var answers []model.Answer
	if err := r.db.Where("test_attempt_id = ?", attemptID).Order("created_at ASC").Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

// Update saves grading fields (IsCorrect, AIFeedback).
func (r *answerRepository) Update(answer *model.Answer) error {
	return r.db.Save(answer).Error
}
