package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/placement/config"
	"github.com/lshigami/placement/internal/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// GeminiLLMService grades free-text placement answers.
type GeminiLLMService interface {
	// Enabled is false when no API key is configured.
	Enabled() bool
	// GradeFreeText returns feedback and a score between 0 and 1.
	GradeFreeText(ctx context.Context, question *model.Question, userAnswer string) (feedback string, score float64, err error)
}

type geminiLLMService struct {
	client *genai.GenerativeModel
}

func NewGeminiLLMService(cfg *config.Config) (GeminiLLMService, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Free-text answers will be graded by exact match.")
		return &geminiLLMService{}, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	m := client.GenerativeModel("gemini-1.5-flash")
	m.SetTemperature(0)
	return &geminiLLMService{client: m}, nil
}

func (s *geminiLLMService) Enabled() bool { return s.client != nil }

// parseScoreAndFeedback reads a "Score: <n>\nFeedback: <text>" reply.
func parseScoreAndFeedback(raw string) (float64, string, error) {
	const scorePrefix, feedbackPrefix = "Score:", "Feedback:"

	scoreIdx := strings.Index(raw, scorePrefix)
	if scoreIdx == -1 {
		return 0, raw, fmt.Errorf("response does not contain %q prefix", scorePrefix)
	}
	rest := raw[scoreIdx+len(scorePrefix):]
	line := rest
	if nl := strings.Index(rest, "\n"); nl != -1 {
		line = rest[:nl]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, raw, fmt.Errorf("empty score in response")
	}
	score, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], ","), 64)
	if err != nil {
		return 0, raw, fmt.Errorf("could not parse score value %q: %w", fields[0], err)
	}

	feedback := ""
	if fbIdx := strings.Index(rest, feedbackPrefix); fbIdx != -1 {
		feedback = strings.TrimSpace(rest[fbIdx+len(feedbackPrefix):])
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, feedback, nil
}

func (s *geminiLLMService) GradeFreeText(ctx context.Context, question *model.Question, userAnswer string) (string, float64, error) {
	if s.client == nil {
		return "", 0, fmt.Errorf("gemini client not initialized")
	}

	var b strings.Builder
	b.WriteString("You are grading one question of a language placement test.\n")
	b.WriteString("Decide whether the student's answer is an acceptable answer to the question.\n\n")
	b.WriteString("Question:\n---\n")
	b.WriteString(question.Prompt)
	b.WriteString("\n---\n")
	if len(question.AnswerKey) > 0 {
		b.WriteString("Reference answers (any equivalent wording is acceptable):\n")
		for _, a := range question.AnswerKey {
			b.WriteString("- ")
			b.WriteString(a)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nStudent answer:\n---\n")
	b.WriteString(userAnswer)
	b.WriteString("\n---\n\n")
	b.WriteString("Reply strictly as:\nScore: <number from 0.0 to 1.0>\nFeedback: <one or two sentences for the student>\n")

	resp, err := s.client.GenerateContent(ctx, genai.Text(b.String()))
	if err != nil {
		log.Error().Err(err).Uint("questionID", question.ID).Msg("Gemini API error during grading")
		return "", 0, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", 0, fmt.Errorf("gemini returned no content")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	score, feedback, err := parseScoreAndFeedback(text.String())
	if err != nil {
		log.Warn().Err(err).Str("rawResponse", text.String()).Msg("Failed to parse Gemini grading reply")
		return "", 0, err
	}
	return feedback, score, nil
}
