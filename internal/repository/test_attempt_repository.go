package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/placement/internal/model"
	"gorm.io/gorm"
)

// CompletionFields are written when an attempt leaves in_progress.
type CompletionFields struct {
	CompletedAt time.Time
	Reason      model.CompletionReason
	Score       float64
	Level       string
}

type TestAttemptRepository interface {
	Create(attempt *model.TestAttempt) error
	FindByID(id uuid.UUID) (*model.TestAttempt, error)
	FindOpenByTestAndStudent(testID uint, studentID string) (*model.TestAttempt, error)
	// Complete moves an in_progress attempt to completed. It reports false
	// when the attempt was no longer in progress.
	Complete(id uuid.UUID, fields CompletionFields) (bool, error)
}

type testAttemptRepository struct {
	db *gorm.DB
}

func NewTestAttemptRepository(db *gorm.DB) TestAttemptRepository {
	return &testAttemptRepository{db: db}
}

func (r *testAttemptRepository) Create(attempt *model.TestAttempt) error {
	return translate(r.db.Create(attempt).Error)
}

func (r *testAttemptRepository) FindByID(id uuid.UUID) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	if err := r.db.Preload("Test").First(&attempt, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &attempt, nil
}

func (r *testAttemptRepository) FindOpenByTestAndStudent(testID uint, studentID string) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.db.Preload("Test").
		Where("test_id = ? AND student_id = ? AND status = ?", testID, studentID, model.AttemptInProgress).
		Order("started_at DESC").
		First(&attempt).Error
	if err != nil {
		return nil, translate(err)
	}
	return &attempt, nil
}

func (r *testAttemptRepository) Complete(id uuid.UUID, fields CompletionFields) (bool, error) {
	res := r.db.Model(&model.TestAttempt{}).
		Where("id = ? AND status = ?", id, model.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":            model.AttemptCompleted,
			"completed_at":      fields.CompletedAt,
			"completion_reason": fields.Reason,
			"score":             fields.Score,
			"level":             fields.Level,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
