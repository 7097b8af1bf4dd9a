package dto

import "time"

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type AttemptDTO struct {
	ID        string    `json:"id"`
	TestID    uint      `json:"test_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Status    string    `json:"status"`
}

type AttemptTestDTO struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
	TotalQuestions  int    `json:"total_questions"`
}

// AttemptQuestionDTO is a question as shown to the student taking the test.
type AttemptQuestionDTO struct {
	ID         uint     `json:"id"`
	Question   string   `json:"question"`
	Type       string   `json:"type"`
	Options    []string `json:"options,omitempty"`
	Image      *string  `json:"image,omitempty"`
	IsAnswered bool     `json:"is_answered"`
	UserAnswer *string  `json:"user_answer,omitempty"`
}

type ProgressDTO struct {
	Answered   int     `json:"answered"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// AttemptStateResponse is the full attempt-by-id payload.
type AttemptStateResponse struct {
	Attempt   AttemptDTO           `json:"attempt"`
	Test      AttemptTestDTO       `json:"test"`
	Questions []AttemptQuestionDTO `json:"questions"`
	Progress  ProgressDTO          `json:"progress"`
}

type SubmitAnswerResponse struct {
	QuestionID uint        `json:"question_id"`
	IsAnswered bool        `json:"is_answered"`
	Progress   ProgressDTO `json:"progress"`
}

type CompleteAttemptResponse struct {
	AttemptID string `json:"attempt_id"`
}
