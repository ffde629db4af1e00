package web

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"pulse/internal/metrics"
	"pulse/internal/models"
)

type ctxKey int

const sessionKey ctxKey = iota

// Login notices.
const (
	noticeBookLogin   = "You must authenticate to book tickets"
	noticeCreateLogin = "You need to log in to access this page."
)

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.ObserveRequest(route, recorder.status, dur)

		s.logger.Info().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status", recorder.status).
			Dur("dur", dur).
			Msg("http")
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientIP(r)) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loadSession attaches the session named by the cookie, or a fresh one.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			id = c.Value
		}
		sess, err := s.sessions.Load(r.Context(), id)
		if err != nil {
			sess = s.sessions.New()
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth redirects anonymous visitors to the login page with notice
// and a next parameter pointing back here.
func (s *Server) requireAuth(notice string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFrom(r)
			if sess.Authenticated() {
				next.ServeHTTP(w, r)
				return
			}
			sess.AddFlash(models.FlashError, "Login required", notice)
			target := "/login"
			if r.Method == http.MethodGet {
				target += "?next=" + url.QueryEscape(r.URL.RequestURI())
			}
			s.redirect(w, r, target)
		})
	}
}

func sessionFrom(r *http.Request) *models.Session {
	if sess, ok := r.Context().Value(sessionKey).(*models.Session); ok {
		return sess
	}
	return &models.Session{}
}

// commit stores the session and refreshes the cookie. It must run before
// the response header is written.
func (s *Server) commit(w http.ResponseWriter, r *http.Request, sess *models.Session) {
	if sess == nil || sess.ID == "" {
		return
	}
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		s.logger.Error().Err(err).Msg("failed to save session")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
