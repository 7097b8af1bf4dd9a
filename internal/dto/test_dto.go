package dto

import "time"

// TestSummaryDTO is used for listing placement tests available to students.
type TestSummaryDTO struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	TotalQuestions  int    `json:"total_questions"`
}

// TestInstructionsDTO backs the page shown before an attempt starts.
type TestInstructionsDTO struct {
	TestSummaryDTO
	QuestionTypes map[string]int `json:"question_types"`
	Categories    []string       `json:"categories"`
}

type StartAttemptResponse struct {
	AttemptID string    `json:"attempt_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Resumed   bool      `json:"resumed"`
}
