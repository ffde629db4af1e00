package models

import "time"

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Session is the server-side state behind the session cookie. Role and
// UserID come from the unverified token payload and only drive what the
// pages show; the backend authorizes every call with Token.
type Session struct {
	ID        string    `json:"id"`
	UserID    ID        `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role,omitempty"`
	Token     string    `json:"token,omitempty"`
	Flashes   []Flash   `json:"flashes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// AddFlash queues a notice, dropping the oldest past MaxFlashes.
func (s *Session) AddFlash(kind, title, message string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Title: title, Message: message})
	if len(s.Flashes) > MaxFlashes {
		s.Flashes = s.Flashes[len(s.Flashes)-MaxFlashes:]
	}
}

// TakeFlashes returns and clears the queued notices.
func (s *Session) TakeFlashes() []Flash {
	out := s.Flashes
	s.Flashes = nil
	return out
}

// SignOut drops identity but keeps the session id and pending notices.
func (s *Session) SignOut() {
	s.UserID = ""
	s.Email = ""
	s.Role = ""
	s.Token = ""
}
