package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lshigami/placement/config"
	"github.com/lshigami/placement/internal/auth"
	"github.com/lshigami/placement/internal/dto"
	"github.com/rs/zerolog/log"
)

const (
	studentIDKey = "studentID"
	requestIDKey = "requestID"

	// StudentHeader names the student when authentication is disabled.
	StudentHeader   = "X-Student-ID"
	RequestIDHeader = "X-Request-ID"
)

// Auth resolves the student behind each request. With no secret configured
// every request is accepted and the optional X-Student-ID header is used.
func Auth(cfg *config.Config) gin.HandlerFunc {
	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("AUTH_JWT_SECRET is not set. API authentication is disabled.")
		return func(c *gin.Context) {
			c.Set(studentIDKey, strings.TrimSpace(c.GetHeader(StudentHeader)))
			c.Next()
		}
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret)
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "missing bearer token"})
			return
		}
		claims, err := tokens.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("Rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "invalid token"})
			return
		}
		c.Set(studentIDKey, claims.Sub)
		c.Next()
	}
}

// StudentID returns the student resolved by Auth, or "" when anonymous.
func StudentID(c *gin.Context) string {
	return c.GetString(studentIDKey)
}

// RequestID tags each request with an id, reusing the caller's if present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
