// Package auth reads identity hints out of backend bearer tokens.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pulse/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload the backend issues. The values are display
// hints only.
type Claims struct {
	ID       models.ID `json:"id"`
	Email    string    `json:"email,omitempty"`
	Username string    `json:"username,omitempty"`
	Role     string    `json:"role,omitempty"`
	Roles    []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Decode parses token without checking its signature.
func Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// EffectiveRole prefers the single role claim over the roles list.
func (c *Claims) EffectiveRole() models.Role {
	if c.Role != "" {
		return models.ParseRole(c.Role)
	}
	return models.HighestRole(c.Roles)
}

// Identity returns the e-mail, falling back to the username claim.
func (c *Claims) Identity() string {
	if c.Email != "" {
		return c.Email
	}
	return c.Username
}

// Expired reports whether the exp claim is set and not after now.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}
