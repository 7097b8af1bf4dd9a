package dto

import "time"

type CategoryResultDTO struct {
	Category   string  `json:"category"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type ClassDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Level       string `json:"level"`
	Description string `json:"description,omitempty"`
	Schedule    string `json:"schedule,omitempty"`
	Price       int64  `json:"price"`
}

// AttemptResultDTO is the result view keyed by attempt id.
type AttemptResultDTO struct {
	AttemptID          string              `json:"attempt_id"`
	TestTitle          string              `json:"test_title"`
	Status             string              `json:"status"`
	CompletionReason   string              `json:"completion_reason,omitempty"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty"`
	Score              float64             `json:"score"`
	Level              string              `json:"level"`
	CorrectAnswers     int                 `json:"correct_answers"`
	IncorrectAnswers   int                 `json:"incorrect_answers"`
	Unanswered         int                 `json:"unanswered"`
	TotalQuestions     int                 `json:"total_questions"`
	TimeSpentSeconds   int                 `json:"time_spent_seconds"`
	Categories         []CategoryResultDTO `json:"categories"`
	RecommendedClasses []ClassDTO          `json:"recommended_classes"`
}
