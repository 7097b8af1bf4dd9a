package repository

import (
	"github.com/lshigami/placement/internal/model"
	"gorm.io/gorm"
)

// TestWithCount is a placement test together with its question count.
type TestWithCount struct {
	model.PlacementTest
	QuestionCount int
}

type TestRepository interface {
	Create(test *model.PlacementTest) error
	Count() (int64, error)
	FindByID(id uint) (*model.PlacementTest, error)
	FindByIDWithQuestions(id uint) (*model.PlacementTest, error)
	FindAllWithQuestionCount() ([]TestWithCount, error)
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

// Create inserts the test together with test.Questions.
func (r *testRepository) Create(test *model.PlacementTest) error {
	return translate(r.db.Create(test).Error)
}

func (r *testRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&model.PlacementTest{}).Count(&n).Error
	return n, err
}

func (r *testRepository) FindByID(id uint) (*model.PlacementTest, error) {
	var test model.PlacementTest
	if err := r.db.First(&test, id).Error; err != nil {
		return nil, translate(err)
	}
	return &test, nil
}

func (r *testRepository) FindByIDWithQuestions(id uint) (*model.PlacementTest, error) {
	var test model.PlacementTest
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.order_in_test ASC")
	}).First(&test, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &test, nil
}

func (r *testRepository) FindAllWithQuestionCount() ([]TestWithCount, error) {
	var results []TestWithCount
	err := r.db.Model(&model.PlacementTest{}).
		Select("placement_tests.*, (SELECT COUNT(*) FROM questions WHERE questions.test_id = placement_tests.id AND questions.deleted_at IS NULL) as question_count").
		Where("placement_tests.deleted_at IS NULL").
		Order("placement_tests.created_at ASC").
		Scan(&results).Error
	return results, err
}
