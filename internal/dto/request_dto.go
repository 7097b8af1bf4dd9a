package dto

// SubmitAnswerRequest records one answer for the attempt's current question.
type SubmitAnswerRequest struct {
	TestQuestionID   uint   `json:"test_question_id" binding:"required"`
	UserAnswer       string `json:"user_answer" binding:"required"`
	TimeSpentSeconds int    `json:"time_spent_seconds" binding:"min=0"`
}
