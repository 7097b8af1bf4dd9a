package service

import (
	"context"
	"strings"
	"sync"

	"github.com/lshigami/placement/internal/model"
	"github.com/lshigami/placement/internal/repository"
	"github.com/rs/zerolog/log"
)

// GradingService marks every answer of an attempt correct or incorrect.
type GradingService interface {
	// GradeAnswers grades and persists answers in place and returns the
	// number of correct ones.
	GradeAnswers(ctx context.Context, questions map[uint]model.Question, answers []model.Answer) (int, error)
}

type gradingService struct {
	answerRepo repository.AnswerRepository
	llm        GeminiLLMService
}

func NewGradingService(answerRepo repository.AnswerRepository, llm GeminiLLMService) GradingService {
	return &gradingService{answerRepo: answerRepo, llm: llm}
}

// gradeResult carries one graded answer back from a worker goroutine.
type gradeResult struct {
	idx int
	err error
}

// normalizeAnswer folds case and whitespace so "  The Cat " matches "the cat".
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func matchesKey(answer string, key []string) bool {
	n := normalizeAnswer(answer)
	for _, k := range key {
		if normalizeAnswer(k) == n {
			return true
		}
	}
	return false
}

func (s *gradingService) grade(ctx context.Context, q model.Question, a *model.Answer) {
	correct := false
	switch {
	case q.Type == model.QuestionFreeText && s.llm != nil && s.llm.Enabled():
		feedback, score, err := s.llm.GradeFreeText(ctx, &q, a.UserAnswer)
		if err != nil {
			log.Warn().Err(err).Uint("questionID", q.ID).Msg("AI grading failed, falling back to answer key")
			correct = matchesKey(a.UserAnswer, q.AnswerKey)
		} else {
			correct = score >= 0.5
			a.AIFeedback = feedback
		}
	default:
		correct = matchesKey(a.UserAnswer, q.AnswerKey)
	}
	a.IsCorrect = &correct
}

func (s *gradingService) GradeAnswers(ctx context.Context, questions map[uint]model.Question, answers []model.Answer) (int, error) {
	var wg sync.WaitGroup
	results := make(chan gradeResult, len(answers))

	for i := range answers {
		q, ok := questions[answers[i].QuestionID]
		if !ok {
			log.Warn().Uint("questionID", answers[i].QuestionID).Msg("Answer references a question outside the test, skipping")
			continue
		}
		wg.Add(1)
		go func(idx int, q model.Question) {
			defer wg.Done()
			s.grade(ctx, q, &answers[idx])
			results <- gradeResult{idx: idx, err: s.answerRepo.Update(&answers[idx])}
		}(i, q)
	}
	wg.Wait()
	close(results)

	var firstErr error
	for r := range results {
		if r.err != nil {
			log.Error().Err(r.err).Uint("answerID", answers[r.idx].ID).Msg("Failed to save graded answer")
			if firstErr == nil {
				firstErr = r.err
			}
		}
	}

	correct := 0
	for _, a := range answers {
		if a.IsCorrect != nil && *a.IsCorrect {
			correct++
		}
	}
	return correct, firstErr
}
