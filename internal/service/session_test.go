package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"pulse/internal/models"
	"pulse/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepository) DeleteSession(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func newService(t *testing.T) (*SessionService, *repository.MemorySessionRepository) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	repo := repository.NewMemorySessionRepository(time.Hour)
	return NewSessionService(repo, 2, time.Minute, &logger), repo
}

func TestSessionService_LoadUnknownCreatesFresh(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	s, err := svc.Load(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.Authenticated())

	other, err := svc.Load(ctx, "nope")
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, other.ID)
}

func TestSessionService_SignInAndOut(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	s := svc.New()
	oldID := s.ID
	require.NoError(t, svc.Save(ctx, s))

	tok := token(t, jwt.MapClaims{"id": 7, "role": "admin", "email": "admin@example.com", "exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, svc.SignIn(ctx, s, tok))

	assert.NotEqual(t, oldID, s.ID)
	assert.Equal(t, models.ID("7"), s.UserID)
	assert.Equal(t, models.RoleAdmin, s.Role)
	assert.Equal(t, "admin@example.com", s.Email)

	gone, _ := repo.GetSession(ctx, oldID)
	assert.Nil(t, gone)

	loaded, err := svc.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Authenticated())

	signedInID := s.ID
	require.NoError(t, svc.SignOut(ctx, s))
	assert.False(t, s.Authenticated())
	assert.NotEqual(t, signedInID, s.ID)
	stale, _ := repo.GetSession(ctx, signedInID)
	assert.Nil(t, stale)
}

func TestSessionService_SignInRejectsGarbage(t *testing.T) {
	svc, _ := newService(t)
	err := svc.SignIn(context.Background(), svc.New(), "garbage")
	assert.Error(t, err)
}

func TestSessionService_ExpiredTokenSignsOut(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	s := svc.New()
	s.Token = token(t, jwt.MapClaims{"id": 1, "exp": time.Now().Add(-time.Minute).Unix()})
	s.UserID = "1"
	require.NoError(t, svc.Save(ctx, s))

	loaded, err := svc.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Authenticated())
	require.Len(t, loaded.Flashes, 1)
	assert.Equal(t, "Session expired", loaded.Flashes[0].Title)
}

func TestSessionService_LoadError(t *testing.T) {
	repo := new(MockSessionRepository)
	logger := zerolog.New(io.Discard)
	svc := NewSessionService(repo, 5, time.Minute, &logger)
	ctx := context.Background()

	repo.On("GetSession", ctx, "x").Return(nil, errors.New("redis down")).Once()
	_, err := svc.Load(ctx, "x")
	assert.Error(t, err)
	repo.AssertExpectations(t)
}

func TestSessionService_AllowLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	assert.True(t, svc.AllowLogin(ctx, "10.0.0.1"))
	assert.True(t, svc.AllowLogin(ctx, "10.0.0.1"))
	assert.False(t, svc.AllowLogin(ctx, "10.0.0.1"))
	assert.True(t, svc.AllowLogin(ctx, "10.0.0.2"))

	t.Run("StoreErrorAllows", func(t *testing.T) {
		repo := new(MockSessionRepository)
		logger := zerolog.New(io.Discard)
		svc := NewSessionService(repo, 5, time.Minute, &logger)
		repo.On("CheckRateLimit", ctx, "login:ip", 5, time.Minute).Return(false, errors.New("fail")).Once()
		assert.True(t, svc.AllowLogin(ctx, "ip"))
		repo.AssertExpectations(t)
	})
}
