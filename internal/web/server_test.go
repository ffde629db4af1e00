package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/backend"
	"pulse/internal/config"
	"pulse/internal/events"
	"pulse/internal/export"
	"pulse/internal/models"
	"pulse/internal/repository"
	"pulse/internal/service"
)

const testSessionID = "sess-1"

type apiCall struct {
	Method      string
	Path        string
	Query       string
	ContentType string
	Body        string
}

// fakeAPI is a recording stand-in for the backend.
type fakeAPI struct {
	mux   *http.ServeMux
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeAPI) handle(pattern string, status int, body string) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.calls = append(f.calls, apiCall{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(raw),
		})
		f.mu.Unlock()
		w.Header().Set("Content-Type", models.ContentLDJSON)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// last returns the most recent call to method and path.
func (f *fakeAPI) last(method, path string) (apiCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Method == method && f.calls[i].Path == path {
			return f.calls[i], true
		}
	}
	return apiCall{}, false
}

type fakeUploader struct {
	url      string
	err      error
	filename string
	data     string
}

func (u *fakeUploader) Upload(ctx context.Context, filename string, image io.Reader) (string, error) {
	raw, _ := io.ReadAll(image)
	u.filename = filename
	u.data = string(raw)
	return u.url, u.err
}

type testEnv struct {
	server  *Server
	handler http.Handler
	api     *fakeAPI
	repo    *repository.MemorySessionRepository
	images  *fakeUploader

	mu        sync.Mutex
	published []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	api := &fakeAPI{mux: http.NewServeMux()}
	apiSrv := httptest.NewServer(api.mux)
	t.Cleanup(apiSrv.Close)

	cfg := &config.Config{}
	cfg.Server.TimeZone = "UTC"
	cfg.Server.MapTileURL = "https://tiles.example/{z}/{x}/{y}.png"
	cfg.Session.CookieName = config.DefaultSessionCookie
	cfg.Session.TTL = time.Hour

	repo := repository.NewMemorySessionRepository(time.Hour)
	env := &testEnv{api: api, repo: repo, images: &fakeUploader{url: "https://i.ibb.co/x/cover.png"}}

	bus := events.NewEventBus()
	for _, typ := range events.AllTypes {
		bus.Subscribe(typ, func(e *events.Event) error {
			env.mu.Lock()
			env.published = append(env.published, e.Type)
			env.mu.Unlock()
			return nil
		})
	}

	srv, err := NewServer(cfg, Deps{
		Backend:  backend.NewClient(apiSrv.URL, 5*time.Second, nil),
		Images:   env.images,
		Sessions: service.NewSessionService(repo, 3, time.Minute, nil),
		Events:   bus,
		Exporter: export.NewWorkbook(time.UTC),
	}, nil)
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Date(2023, 11, 1, 12, 0, 0, 0, time.UTC) }

	env.server = srv
	env.handler = srv.Handler()
	return env
}

// login stores an authenticated session and returns its cookie.
func (e *testEnv) login(t *testing.T, role models.Role) *http.Cookie {
	t.Helper()
	require.NoError(t, e.repo.SaveSession(context.Background(), &models.Session{
		ID:     testSessionID,
		Token:  "tok",
		UserID: "7",
		Email:  "ada@example.com",
		Role:   role,
	}))
	return &http.Cookie{Name: config.DefaultSessionCookie, Value: testSessionID}
}

func (e *testEnv) do(method, target string, form url.Values, cookie *http.Cookie, header ...string) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// session returns the stored session named by the response cookie.
func (e *testEnv) session(t *testing.T, rec *httptest.ResponseRecorder) *models.Session {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == config.DefaultSessionCookie {
			sess, err := e.repo.GetSession(context.Background(), c.Value)
			require.NoError(t, err)
			require.NotNil(t, sess)
			return sess
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func (e *testEnv) events() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.published...)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.server.ready = func(ctx context.Context) error { return errors.New("redis down") }
	rec = env.do(http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"redis down"}`, rec.Body.String())
}

func TestNotFoundPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/static/app.js", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "data-row-action")
}

func TestSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, config.DefaultSessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestRequireAuthRedirects(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path   string
		notice string
	}{
		{"/event/5/book", noticeBookLogin},
		{"/event/create", noticeCreateLogin},
		{"/dashboard", noticeCreateLogin},
		{"/account", noticeCreateLogin},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.path, nil, nil)
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/login?next="+url.QueryEscape(tt.path), rec.Header().Get("Location"))

			sess := env.session(t, rec)
			require.Len(t, sess.Flashes, 1)
			assert.Equal(t, tt.notice, sess.Flashes[0].Message)
		})
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t)
	env.server.limiter = newRateLimiter(config.RateLimitConfig{RPS: 1, Burst: 2})
	env.handler = env.server.Handler()

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/", nil, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/", nil, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(http.MethodGet, "/", nil, nil).Code)

	// health checks bypass the limiter
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/healthz", nil, nil).Code)
}

func TestInflightGuard(t *testing.T) {
	g := newInflightGuard()

	release, ok := g.acquire("s:book:1")
	require.True(t, ok)

	_, ok = g.acquire("s:book:1")
	assert.False(t, ok)

	_, ok = g.acquire("s:book:2")
	assert.True(t, ok)

	release()
	_, ok = g.acquire("s:book:1")
	assert.True(t, ok)
}

func TestRateLimiterDisabled(t *testing.T) {
	l := newRateLimiter(config.RateLimitConfig{})
	for i := 0; i < 100; i++ {
		assert.True(t, l.allow("1.2.3.4"))
	}
}
