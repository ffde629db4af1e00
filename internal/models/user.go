package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// ParseRole accepts plain names and Symfony style ROLE_* names.
// Anything unrecognised is a plain user.
func ParseRole(s string) Role {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "role_")
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleOrganizer:
		return RoleOrganizer
	default:
		return RoleUser
	}
}

// HighestRole picks the most privileged role from a list.
func HighestRole(roles []string) Role {
	best := RoleUser
	for _, r := range roles {
		switch ParseRole(r) {
		case RoleAdmin:
			return RoleAdmin
		case RoleOrganizer:
			best = RoleOrganizer
		}
	}
	return best
}

type User struct {
	IRI       string    `json:"@id,omitempty"`
	ID        ID        `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Role      string    `json:"role,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// EffectiveRole merges the single and list role fields.
func (u *User) EffectiveRole() Role {
	if u.Role != "" {
		return ParseRole(u.Role)
	}
	return HighestRole(u.Roles)
}

func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

func (u *User) Active() bool {
	return u.Status == "" || strings.EqualFold(u.Status, UserActive)
}

// Credentials is the body of POST /auth and the register endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthToken is the POST /auth response.
type AuthToken struct {
	Token string `json:"token"`
}
