// Package tokens mints and validates the opaque watch tokens carried by SMS
// links. The client treats a token as an opaque string; server-side it is an
// HS256 JWT carrying the assignment id so /video/{token} resolves without a
// token table.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid watch token")

// Claims holds watch token claims.
type Claims struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	AdID         string    `json:"ad_id"`
	jwt.RegisteredClaims
}

// Service handles watch token generation and validation.
type Service struct {
	secret      []byte
	expireHours int
}

// NewService creates a watch token service.
func NewService(secret string, expireHours int) *Service {
	return &Service{secret: []byte(secret), expireHours: expireHours}
}

// Issue creates a watch token for an ad assignment.
func (s *Service) Issue(assignmentID uuid.UUID, adID string) (string, error) {
	claims := Claims{
		AssignmentID: assignmentID,
		AdID:         adID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a watch token, returning claims or error.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
