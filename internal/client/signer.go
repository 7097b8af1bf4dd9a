package client

import (
	"net/http"
	"sync"
	"time"

	"github.com/lshigami/placement/internal/auth"
)

// Signer authenticates an outgoing request. The client never stores
// credentials itself.
type Signer interface {
	Sign(req *http.Request) error
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(req *http.Request) error

func (f SignerFunc) Sign(req *http.Request) error { return f(req) }

// StaticToken sends a fixed bearer token.
type StaticToken string

func (t StaticToken) Sign(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+string(t))
	return nil
}

// StudentHeader identifies the student on an API running without authentication.
func StudentHeader(studentID string) Signer {
	return SignerFunc(func(req *http.Request) error {
		if studentID != "" {
			req.Header.Set("X-Student-ID", studentID)
		}
		return nil
	})
}

// JWTSigner mints HS256 tokens for one student and reuses each until it is
// about to expire.
type JWTSigner struct {
	tokens    *auth.TokenService
	studentID string
	ttl       time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewJWTSigner(secret, studentID string, ttl time.Duration) *JWTSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTSigner{tokens: auth.NewTokenService(secret), studentID: studentID, ttl: ttl}
}

func (s *JWTSigner) Sign(req *http.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || time.Until(s.expires) < time.Minute {
		tok, exp, err := s.tokens.Issue(s.studentID, s.ttl)
		if err != nil {
			return err
		}
		s.token, s.expires = tok, exp
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	return nil
}
