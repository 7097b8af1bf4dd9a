package service

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/placement/internal/dto"
	"github.com/lshigami/placement/internal/repository"
	"github.com/rs/zerolog/log"
)

type UserTestService interface {
	GetAllTests() ([]dto.TestSummaryDTO, error)
	GetTestInstructions(testID uint) (*dto.TestInstructionsDTO, error)
}

type userTestService struct {
	testRepo repository.TestRepository
}

func NewUserTestService(testRepo repository.TestRepository) UserTestService {
	return &userTestService{testRepo: testRepo}
}

func (s *userTestService) GetAllTests() ([]dto.TestSummaryDTO, error) {
	testsWithCount, err := s.testRepo.FindAllWithQuestionCount()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get all tests with question count from repository")
		return nil, fmt.Errorf("error fetching tests: %w", err)
	}

	dtos := make([]dto.TestSummaryDTO, 0, len(testsWithCount))
	for _, twc := range testsWithCount {
		var summary dto.TestSummaryDTO
		copier.Copy(&summary, &twc.PlacementTest)
		summary.TotalQuestions = twc.QuestionCount
		dtos = append(dtos, summary)
	}
	return dtos, nil
}

func (s *userTestService) GetTestInstructions(testID uint) (*dto.TestInstructionsDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTestNotFound
		}
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to get test details from repository")
		return nil, fmt.Errorf("error fetching test %d: %w", testID, err)
	}

	resp := &dto.TestInstructionsDTO{QuestionTypes: map[string]int{}}
	copier.Copy(&resp.TestSummaryDTO, test)
	resp.TotalQuestions = len(test.Questions)

	seen := map[string]bool{}
	for _, q := range test.Questions {
		resp.QuestionTypes[string(q.Type)]++
		if !seen[q.Category] {
			seen[q.Category] = true
			resp.Categories = append(resp.Categories, q.Category)
		}
	}
	return resp, nil
}
