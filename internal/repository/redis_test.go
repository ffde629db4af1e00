package repository

import (
	"context"
	"testing"
	"time"

	"pulse/internal/config"
	"pulse/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	repo := NewRedisSessionRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SaveAndGetSession", func(t *testing.T) {
		session := &models.Session{
			ID:     "abc",
			UserID: "42",
			Role:   models.RoleOrganizer,
			Token:  "tok",
		}
		session.AddFlash(models.FlashSuccess, "Booking Successful", "Your tickets have been booked successfully")

		require.NoError(t, repo.SaveSession(ctx, session))

		got, err := repo.GetSession(ctx, "abc")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.ID("42"), got.UserID)
		assert.Equal(t, models.RoleOrganizer, got.Role)
		assert.Equal(t, "tok", got.Token)
		require.Len(t, got.Flashes, 1)
		assert.Equal(t, "Booking Successful", got.Flashes[0].Title)
		assert.True(t, s.TTL(sessionKeyPrefix+"abc") > 0)
	})

	t.Run("GetUnknownSession", func(t *testing.T) {
		got, err := repo.GetSession(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{ID: "short"}))
		s.FastForward(2 * time.Hour)
		got, err := repo.GetSession(ctx, "short")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DeleteSession", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{ID: "gone"}))
		require.NoError(t, repo.DeleteSession(ctx, "gone"))
		got, _ := repo.GetSession(ctx, "gone")
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "login:1.2.3.4"
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, key, 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, 2, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, key, 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisSessionRepository(nil, time.Hour)
		_, err := repo.GetSession(ctx, "abc")
		assert.ErrorIs(t, err, errNilClient)
	})

	t.Run("ServerDown", func(t *testing.T) {
		dead := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
		defer dead.Close()
		_, err := NewRedisSessionRepository(dead, time.Hour).GetSession(ctx, "abc")
		assert.Error(t, err)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, Close(client))
		assert.NoError(t, Close(nil))
	})
}
