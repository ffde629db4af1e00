package service

import (
	"context"
	"fmt"
	"time"

	"pulse/internal/auth"
	"pulse/internal/domain"
	"pulse/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionService creates, loads and signs in sessions on top of a
// SessionRepository.
type SessionService struct {
	repo          domain.SessionRepository
	logger        *zerolog.Logger
	loginAttempts int
	loginWindow   time.Duration
	now           func() time.Time
}

func NewSessionService(repo domain.SessionRepository, loginAttempts int, loginWindow time.Duration, logger *zerolog.Logger) *SessionService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &SessionService{
		repo:          repo,
		logger:        logger,
		loginAttempts: loginAttempts,
		loginWindow:   loginWindow,
		now:           time.Now,
	}
}

// New returns a fresh anonymous session. It is not stored until Save.
func (s *SessionService) New() *models.Session {
	return &models.Session{ID: uuid.NewString(), CreatedAt: s.now()}
}

// Load returns the session for id, or a fresh one when id is unknown.
// Sessions whose token has expired are signed out.
func (s *SessionService) Load(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return s.New(), nil
	}
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load session")
		return nil, err
	}
	if session == nil {
		return s.New(), nil
	}
	if session.Authenticated() {
		if claims, err := auth.Decode(session.Token); err == nil && claims.Expired(s.now()) {
			session.SignOut()
			session.AddFlash(models.FlashInfo, "Session expired", "Please log in again.")
		}
	}
	return session, nil
}

func (s *SessionService) Save(ctx context.Context, session *models.Session) error {
	return s.repo.SaveSession(ctx, session)
}

// SignIn stores token on the session under a new session id and fills the
// identity hints from its claims.
func (s *SessionService) SignIn(ctx context.Context, session *models.Session, token string) error {
	claims, err := auth.Decode(token)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	if session.ID != "" {
		if err := s.repo.DeleteSession(ctx, session.ID); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drop pre-login session")
		}
	}
	session.ID = uuid.NewString()
	session.Token = token
	session.UserID = claims.ID
	session.Email = claims.Identity()
	session.Role = claims.EffectiveRole()

	return s.repo.SaveSession(ctx, session)
}

// SignOut forgets the identity, deletes the stored session and moves the
// remaining notices to a new session id.
func (s *SessionService) SignOut(ctx context.Context, session *models.Session) error {
	session.SignOut()
	err := s.repo.DeleteSession(ctx, session.ID)
	session.ID = uuid.NewString()
	return err
}

// AllowLogin applies the login attempt limit for key. Store failures let
// the attempt through.
func (s *SessionService) AllowLogin(ctx context.Context, key string) bool {
	if s.loginAttempts <= 0 {
		return true
	}
	allowed, err := s.repo.CheckRateLimit(ctx, "login:"+key, s.loginAttempts, s.loginWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login rate limit check failed")
		return true
	}
	return allowed
}
