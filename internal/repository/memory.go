package repository

import (
	"context"
	"sync"
	"time"

	"pulse/internal/models"
)

type memorySession struct {
	data      models.Session
	expiresAt time.Time
}

// MemorySessionRepository is the in-process store used when Redis is not
// configured or unreachable. Sessions are copied on the way in and out.
type MemorySessionRepository struct {
	sessions sync.Map

	mu         sync.Mutex
	rateLimits map[string]*rateLimitEntry

	ttl time.Duration
	now func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		rateLimits: make(map[string]*rateLimitEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	val, ok := r.sessions.Load(id)
	if !ok {
		return nil, nil
	}
	entry := val.(*memorySession)
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		r.sessions.Delete(id)
		return nil, nil
	}
	s := copySession(&entry.data)
	return s, nil
}

func (r *MemorySessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	r.sessions.Store(session.ID, &memorySession{
		data:      *copySession(session),
		expiresAt: r.now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySessionRepository) DeleteSession(ctx context.Context, id string) error {
	r.sessions.Delete(id)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}

// Sweep drops expired sessions and rate-limit windows.
func (r *MemorySessionRepository) Sweep() {
	now := r.now()
	r.sessions.Range(func(key, val any) bool {
		if r.ttl > 0 && now.After(val.(*memorySession).expiresAt) {
			r.sessions.Delete(key)
		}
		return true
	})

	r.mu.Lock()
	for k, e := range r.rateLimits {
		if now.After(e.expiresAt) {
			delete(r.rateLimits, k)
		}
	}
	r.mu.Unlock()
}

func copySession(s *models.Session) *models.Session {
	out := *s
	out.Flashes = append([]models.Flash(nil), s.Flashes...)
	return &out
}
