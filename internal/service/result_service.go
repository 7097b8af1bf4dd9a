package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lshigami/placement/internal/dto"
	"github.com/lshigami/placement/internal/model"
	"github.com/rs/zerolog/log"
)

// GetResult builds the result view of a completed attempt.
func (s *attemptService) GetResult(ctx context.Context, attemptID uuid.UUID, studentID string) (*dto.AttemptResultDTO, error) {
	attempt, err := s.completedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.FindByTestID(attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("error fetching questions: %w", err)
	}
	answers, err := s.answerRepo.FindByAttempt(attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("error fetching answers: %w", err)
	}
	byQuestion := make(map[uint]model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	res := &dto.AttemptResultDTO{
		AttemptID:      attempt.ID.String(),
		TestTitle:      attempt.Test.Title,
		Status:         string(attempt.Status),
		CompletedAt:    attempt.CompletedAt,
		TotalQuestions: len(questions),
	}
	if attempt.CompletionReason != nil {
		res.CompletionReason = string(*attempt.CompletionReason)
	}
	if attempt.Score != nil {
		res.Score = *attempt.Score
	}
	if attempt.Level != nil {
		res.Level = *attempt.Level
	}

	var order []string
	categories := map[string]*dto.CategoryResultDTO{}
	for _, q := range questions {
		cat, ok := categories[q.Category]
		if !ok {
			cat = &dto.CategoryResultDTO{Category: q.Category}
			categories[q.Category] = cat
			order = append(order, q.Category)
		}
		cat.Total++

		a, answered := byQuestion[q.ID]
		switch {
		case !answered:
			res.Unanswered++
		case a.IsCorrect != nil && *a.IsCorrect:
			res.CorrectAnswers++
			cat.Correct++
		default:
			res.IncorrectAnswers++
		}
		if answered {
			res.TimeSpentSeconds += a.TimeSpentSeconds
		}
	}
	for _, name := range order {
		cat := categories[name]
		cat.Percentage = s.scoreConverter.ToPercentage(cat.Correct, cat.Total)
		res.Categories = append(res.Categories, *cat)
	}

	res.RecommendedClasses = []dto.ClassDTO{}
	if res.Level != "" {
		classes, err := s.classRepo.FindByLevel(res.Level)
		if err != nil {
			log.Warn().Err(err).Str("level", res.Level).Msg("Failed to load recommended classes")
		} else if err := copier.Copy(&res.RecommendedClasses, &classes); err != nil {
			log.Warn().Err(err).Msg("Failed to copy classes to DTO")
		}
	}
	return res, nil
}

// completedAttempt returns the attempt once it is completed, finalizing it
// first when its time already ran out.
func (s *attemptService) completedAttempt(ctx context.Context, attemptID uuid.UUID, studentID string) (*model.TestAttempt, error) {
	unlock := s.lock(attemptID)
	defer unlock()

	attempt, err := s.loadAttempt(attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == model.AttemptCompleted {
		return attempt, nil
	}
	if !attempt.ExpiredAt(s.now(), s.grace) {
		return nil, ErrAttemptNotCompleted
	}
	if _, err := s.finalize(ctx, attempt, model.CompletedByTimeout); err != nil {
		return nil, err
	}
	// Reload for score and level written by finalize.
	attempt, err = s.loadAttempt(attemptID, studentID)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error reloading attempt: %w", err)
	}
	return attempt, nil
}
