// Package web serves the Pulse pages and forwards every action to the
// backend API.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"pulse/internal/config"
	"pulse/internal/domain"
	"pulse/internal/service"
)

// Deps are the collaborators a Server forwards work to.
type Deps struct {
	Backend  domain.Backend
	Images   domain.ImageUploader
	Sessions *service.SessionService
	Events   domain.EventPublisher
	Exporter domain.Exporter
	// Ready reports whether shared stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Server renders pages and exposes the dashboard row actions.
type Server struct {
	cfg      *config.Config
	backend  domain.Backend
	images   domain.ImageUploader
	sessions *service.SessionService
	events   domain.EventPublisher
	exporter domain.Exporter
	ready    func(ctx context.Context) error

	pages    *renderer
	limiter  *rateLimiter
	inflight *inflightGuard
	loc      *time.Location
	logger   *zerolog.Logger
	now      func() time.Time

	server *http.Server
}

func NewServer(cfg *config.Config, deps Deps, logger *zerolog.Logger) (*Server, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "web").Logger()

	loc := cfg.Server.Location()
	pages, err := newRenderer(loc)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		backend:  deps.Backend,
		images:   deps.Images,
		sessions: deps.Sessions,
		events:   deps.Events,
		exporter: deps.Exporter,
		ready:    deps.Ready,
		pages:    pages,
		limiter:  newRateLimiter(cfg.RateLimit),
		inflight: newInflightGuard(),
		loc:      loc,
		logger:   &l,
		now:      time.Now,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	return s, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.accessLog)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Use(s.loadSession)

		r.NotFound(s.handleNotFound)

		r.Get("/", s.handleHome)
		r.Get("/search", s.handleSearch)

		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/signup", s.handleSignupPage)
		r.Post("/signup", s.handleSignup)
		r.Get("/password-reset", s.handleForgotPasswordPage)
		r.Post("/password-reset", s.handleForgotPassword)
		r.Get("/reset-password", s.handleResetPasswordPage)
		r.Post("/reset-password", s.handleResetPassword)
		r.Get("/set-password", s.handleSetPassword)

		r.Route("/event", func(r chi.Router) {
			r.With(s.requireAuth(noticeCreateLogin)).Get("/create", s.handleEventCreatePage)
			r.With(s.requireAuth(noticeCreateLogin)).Post("/create", s.handleEventCreate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleEventDetail)

				r.Group(func(r chi.Router) {
					r.Use(s.requireAuth(noticeBookLogin))
					r.Get("/book", s.handleBookPage)
					r.Post("/book", s.handleBook)
				})

				r.Group(func(r chi.Router) {
					r.Use(s.requireAuth(noticeCreateLogin))
					r.Get("/edit", s.handleEventEditPage)
					r.Post("/edit", s.handleEventEdit)
					r.Post("/report", s.handleReport)
				})
			})
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(s.requireAuth(noticeCreateLogin))
			r.Get("/", s.handleDashboard)
			r.Get("/export", s.handleDashboardExport)
			r.Post("/events/{id}/status", s.handleEventStatusAction)
			r.Post("/events/{id}/cancel", s.handleEventCancelAction)
			r.Post("/users/{id}/status", s.handleUserStatusAction)
			r.Post("/users/{id}/role", s.handleUserRoleAction)
			r.Post("/bookings/{id}/cancel", s.handleBookingCancelAction)
			r.Post("/reports/{id}/resolve", s.handleReportResolveAction)
		})

		r.Route("/account", func(r chi.Router) {
			r.Use(s.requireAuth(noticeCreateLogin))
			r.Get("/", s.handleAccountPage)
			r.Post("/", s.handleAccountUpdate)
			r.Get("/tickets", s.handleTickets)
			r.Post("/tickets/{id}/cancel", s.handleTicketCancel)
		})
	})

	return r
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("web server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) publish(eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}
