package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "placement"

var ErrInvalidToken = errors.New("invalid token")

// Claims identifies the student a request acts for.
type Claims struct {
	Sub string `json:"sub"`
	jwt.RegisteredClaims
}

type TokenService struct {
	hmac []byte
	now  func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{hmac: []byte(secret), now: time.Now}
}

// Issue signs an HS256 token for studentID valid for ttl.
func (a *TokenService) Issue(studentID string, ttl time.Duration) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(ttl)
	claims := &Claims{
		Sub: studentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(a.hmac)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (a *TokenService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	c, ok := token.Claims.(*Claims)
	if !ok || c.Sub == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}
