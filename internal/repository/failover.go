package repository

import (
	"context"
	"sync/atomic"
	"time"

	"pulse/internal/domain"
	"pulse/internal/models"

	"github.com/rs/zerolog"
)

// recheckAfter is how long the primary is skipped after a failure.
const recheckAfter = time.Minute

// FailoverSessionRepository prefers primary (Redis) and serves from
// fallback (memory) while primary is failing, retrying primary once
// recheckAfter has passed.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverSessionRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return time.Since(time.Unix(0, r.lastCheck.Load())) > recheckAfter
}

func (r *FailoverSessionRepository) primaryFailed(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
	}
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSessionRepository) primaryOK() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary session repository recovered")
	}
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if r.usePrimary() {
		session, err := r.primary.GetSession(ctx, id)
		if err == nil {
			r.primaryOK()
			if session != nil {
				return session, nil
			}
			// Sessions created during an outage only exist in fallback.
			return r.fallback.GetSession(ctx, id)
		}
		r.primaryFailed(err)
	}
	return r.fallback.GetSession(ctx, id)
}

func (r *FailoverSessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	if r.usePrimary() {
		err := r.primary.SaveSession(ctx, session)
		if err == nil {
			r.primaryOK()
			return nil
		}
		r.primaryFailed(err)
	}
	return r.fallback.SaveSession(ctx, session)
}

func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, id string) error {
	// Both copies are dropped.
	_ = r.fallback.DeleteSession(ctx, id)
	if r.usePrimary() {
		err := r.primary.DeleteSession(ctx, id)
		if err == nil {
			r.primaryOK()
			return nil
		}
		r.primaryFailed(err)
	}
	return nil
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.primaryOK()
			return allowed, nil
		}
		r.primaryFailed(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
