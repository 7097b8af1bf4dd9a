package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lshigami/placement/internal/dto"
	"github.com/rs/zerolog/log"
)

// Client talks to the placement API under its /api/v1 base URL.
type Client struct {
	baseURL string
	http    *http.Client
	signer  Signer
}

type Config struct {
	BaseURL string
	Signer  Signer
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout still applies when set.
	HTTPClient *http.Client
}

func New(cfg Config) *Client {
	h := cfg.HTTPClient
	if h == nil {
		h = &http.Client{}
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	signer := cfg.Signer
	if signer == nil {
		signer = SignerFunc(func(*http.Request) error { return nil })
	}
	return &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), http: h, signer: signer}
}

func (c *Client) ListTests(ctx context.Context) ([]dto.TestSummaryDTO, error) {
	var out []dto.TestSummaryDTO
	err := c.do(ctx, http.MethodGet, "/tests", nil, &out, ErrTestNotFound)
	return out, err
}

func (c *Client) GetTestInstructions(ctx context.Context, testID uint) (*dto.TestInstructionsDTO, error) {
	var out dto.TestInstructionsDTO
	if err := c.do(ctx, http.MethodGet, "/tests/"+strconv.FormatUint(uint64(testID), 10), nil, &out, ErrTestNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StartAttempt(ctx context.Context, testID uint) (*dto.StartAttemptResponse, error) {
	var out dto.StartAttemptResponse
	path := "/tests/" + strconv.FormatUint(uint64(testID), 10) + "/attempts"
	if err := c.do(ctx, http.MethodPost, path, nil, &out, ErrTestNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAttempt(ctx context.Context, attemptID string) (*dto.AttemptStateResponse, error) {
	var out dto.AttemptStateResponse
	if err := c.do(ctx, http.MethodGet, attemptPath(attemptID, ""), nil, &out, ErrAttemptNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, attemptID string, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error) {
	var out dto.SubmitAnswerResponse
	if err := c.do(ctx, http.MethodPost, attemptPath(attemptID, "/answers"), req, &out, ErrAttemptNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CompleteAttempt(ctx context.Context, attemptID string) (*dto.CompleteAttemptResponse, error) {
	var out dto.CompleteAttemptResponse
	if err := c.do(ctx, http.MethodPost, attemptPath(attemptID, "/complete"), nil, &out, ErrAttemptNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetResult(ctx context.Context, attemptID string) (*dto.AttemptResultDTO, error) {
	var out dto.AttemptResultDTO
	if err := c.do(ctx, http.MethodGet, attemptPath(attemptID, "/result"), nil, &out, ErrAttemptNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

func attemptPath(attemptID, suffix string) string {
	return "/attempts/" + url.PathEscape(attemptID) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, notFound error) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.signer.Sign(req); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	log.Debug().Str("method", method).Str("path", path).Int("status", res.StatusCode).Dur("latency", time.Since(start)).Msg("api call")

	if res.StatusCode/100 != 2 {
		var e dto.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
		if err := json.Unmarshal(raw, &e); err != nil || e.Message == "" {
			e.Message = strings.TrimSpace(string(raw))
		}
		return newAPIError(res.StatusCode, e.Message, e.Details, notFound)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
