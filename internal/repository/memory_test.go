package repository

import (
	"context"
	"testing"
	"time"

	"pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("SaveAndGetSession", func(t *testing.T) {
		session := &models.Session{ID: "s1", Token: "tok"}
		session.AddFlash(models.FlashInfo, "t", "v")
		require.NoError(t, repo.SaveSession(ctx, session))

		got, err := repo.GetSession(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "tok", got.Token)

		got.Flashes[0].Message = "changed"
		again, _ := repo.GetSession(ctx, "s1")
		assert.Equal(t, "v", again.Flashes[0].Message)
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{ID: "s2"}))
		now = now.Add(2 * time.Hour)
		got, err := repo.GetSession(ctx, "s2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DeleteSession", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{ID: "s3"}))
		require.NoError(t, repo.DeleteSession(ctx, "s3"))
		got, _ := repo.GetSession(ctx, "s3")
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, err := repo.CheckRateLimit(ctx, "login:x", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, _ := repo.CheckRateLimit(ctx, "login:x", 3, time.Minute)
		assert.False(t, allowed)

		now = now.Add(2 * time.Minute)
		allowed, _ = repo.CheckRateLimit(ctx, "login:x", 3, time.Minute)
		assert.True(t, allowed)
	})

	t.Run("Sweep", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{ID: "old"}))
		_, _ = repo.CheckRateLimit(ctx, "login:y", 1, time.Minute)
		now = now.Add(3 * time.Hour)
		repo.Sweep()

		_, ok := repo.sessions.Load("old")
		assert.False(t, ok)
		assert.Empty(t, repo.rateLimits)
	})
}
