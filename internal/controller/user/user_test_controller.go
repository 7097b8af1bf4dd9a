package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lshigami/placement/internal/dto"
	"github.com/lshigami/placement/internal/middleware"
	"github.com/lshigami/placement/internal/service"
	"github.com/rs/zerolog/log"
)

type UserTestController struct {
	userTestService service.UserTestService
	attemptService  service.AttemptService
}

func NewUserTestController(uts service.UserTestService, as service.AttemptService) *UserTestController {
	return &UserTestController{
		userTestService: uts,
		attemptService:  as,
	}
}

// RegisterRoutes mounts the student endpoints on rg.
func (c *UserTestController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tests", c.GetAllTests)
	rg.GET("/tests/:test_id", c.GetTestInstructions)
	rg.POST("/tests/:test_id/attempts", c.StartAttempt)

	attempts := rg.Group("/attempts/:attempt_id")
	attempts.GET("", c.GetAttempt)
	attempts.POST("/answers", c.SubmitAnswer)
	attempts.POST("/complete", c.CompleteAttempt)
	attempts.GET("/result", c.GetResult)
}

// writeError maps service errors onto HTTP statuses.
func writeError(ctx *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrTestNotFound),
		errors.Is(err, service.ErrAttemptNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrAttemptExpired):
		status = http.StatusGone
	case errors.Is(err, service.ErrAlreadyAnswered),
		errors.Is(err, service.ErrAttemptClosed),
		errors.Is(err, service.ErrAttemptNotCompleted):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidAnswer),
		errors.Is(err, service.ErrQuestionNotFound):
		// A question outside the attempt is a bad request, not a missing attempt.
		status = http.StatusBadRequest
	}

	ev := log.Warn()
	if status == http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).Str("op", op).Int("status", status).Str("requestID", middleware.GetRequestID(ctx)).Msg("Request failed")

	if status == http.StatusInternalServerError {
		ctx.JSON(status, dto.ErrorResponse{Message: "internal server error"})
		return
	}
	ctx.JSON(status, dto.ErrorResponse{Message: err.Error()})
}

func parseAttemptID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("attempt_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid attempt ID format"})
		return uuid.Nil, false
	}
	return id, true
}

func parseTestID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("test_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Test ID format"})
		return 0, false
	}
	return uint(id), true
}

// GetAllTests godoc
// @Summary List placement tests
// @Tags Placement Tests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TestSummaryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests [get]
func (c *UserTestController) GetAllTests(ctx *gin.Context) {
	tests, err := c.userTestService.GetAllTests()
	if err != nil {
		writeError(ctx, "list tests", err)
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTestInstructions godoc
// @Summary Get the instructions of a placement test
// @Description Title, duration, question count and the question types a student will meet.
// @Tags Placement Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestInstructionsDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Test ID format"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id} [get]
func (c *UserTestController) GetTestInstructions(ctx *gin.Context) {
	testID, ok := parseTestID(ctx)
	if !ok {
		return
	}
	instructions, err := c.userTestService.GetTestInstructions(testID)
	if err != nil {
		writeError(ctx, "test instructions", err)
		return
	}
	ctx.JSON(http.StatusOK, instructions)
}

// StartAttempt godoc
// @Summary Start a timed attempt
// @Description Creates an attempt expiring after the test duration, or resumes the student's open attempt.
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 201 {object} dto.StartAttemptResponse "New attempt"
// @Success 200 {object} dto.StartAttemptResponse "Resumed attempt"
// @Failure 400 {object} dto.ErrorResponse "Invalid Test ID format"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id}/attempts [post]
func (c *UserTestController) StartAttempt(ctx *gin.Context) {
	testID, ok := parseTestID(ctx)
	if !ok {
		return
	}
	resp, err := c.attemptService.StartAttempt(testID, middleware.StudentID(ctx))
	if err != nil {
		writeError(ctx, "start attempt", err)
		return
	}
	status := http.StatusCreated
	if resp.Resumed {
		status = http.StatusOK
	}
	ctx.JSON(status, resp)
}

// GetAttempt godoc
// @Summary Get attempt state
// @Description Attempt, test, questions with answered flags, and progress.
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptStateResponse
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 410 {object} dto.ErrorResponse "Attempt expired"
// @Router /attempts/{attempt_id} [get]
func (c *UserTestController) GetAttempt(ctx *gin.Context) {
	attemptID, ok := parseAttemptID(ctx)
	if !ok {
		return
	}
	state, err := c.attemptService.GetAttemptState(attemptID, middleware.StudentID(ctx))
	if err != nil {
		writeError(ctx, "get attempt", err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// SubmitAnswer godoc
// @Summary Submit one answer
// @Tags Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Param answer body dto.SubmitAnswerRequest true "Answer for one question"
// @Success 200 {object} dto.SubmitAnswerResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input or question not in this attempt"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Question already answered or attempt closed"
// @Failure 410 {object} dto.ErrorResponse "Attempt expired"
// @Router /attempts/{attempt_id}/answers [post]
func (c *UserTestController) SubmitAnswer(ctx *gin.Context) {
	attemptID, ok := parseAttemptID(ctx)
	if !ok {
		return
	}
	var req dto.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("SubmitAnswer: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.attemptService.SubmitAnswer(attemptID, middleware.StudentID(ctx), req)
	if err != nil {
		writeError(ctx, "submit answer", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CompleteAttempt godoc
// @Summary Complete an attempt
// @Description Grades and closes the attempt. Completing an already completed attempt returns the same id.
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.CompleteAttemptResponse
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id}/complete [post]
func (c *UserTestController) CompleteAttempt(ctx *gin.Context) {
	attemptID, ok := parseAttemptID(ctx)
	if !ok {
		return
	}
	resp, err := c.attemptService.CompleteAttempt(ctx.Request.Context(), attemptID, middleware.StudentID(ctx))
	if err != nil {
		writeError(ctx, "complete attempt", err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetResult godoc
// @Summary Get the result of a completed attempt
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} dto.AttemptResultDTO
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt not completed"
// @Router /attempts/{attempt_id}/result [get]
func (c *UserTestController) GetResult(ctx *gin.Context) {
	attemptID, ok := parseAttemptID(ctx)
	if !ok {
		return
	}
	result, err := c.attemptService.GetResult(ctx.Request.Context(), attemptID, middleware.StudentID(ctx))
	if err != nil {
		writeError(ctx, "get result", err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
