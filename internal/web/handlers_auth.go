package web

import (
	"net/http"
	"strings"

	"pulse/internal/backend"
	"pulse/internal/events"
	"pulse/internal/forms"
	"pulse/internal/models"
)

const noticeTooManyLogins = "Too many login attempts. Please wait a minute and try again."

type loginView struct {
	Form forms.LoginForm
	Next string
}

type signupView struct {
	Form forms.SignupForm
}

type forgotView struct {
	Form forms.ForgotPasswordForm
}

type resetView struct {
	Token string
}

// safeNext keeps only same-site absolute paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

// landingFor is where a fresh login goes without a next parameter.
func landingFor(role models.Role) string {
	if role == models.RoleAdmin || role == models.RoleOrganizer {
		return "/dashboard"
	}
	return "/"
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	next := safeNext(r.URL.Query().Get("next"))
	if sess.Authenticated() {
		s.redirect(w, r, orDefault(next, landingFor(sess.Role)))
		return
	}
	s.render(w, r, http.StatusOK, "login", page{Title: "Log in", Data: &loginView{Next: next}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	sess := sessionFrom(r)
	form := forms.ParseLogin(r.PostForm)
	view := &loginView{Form: form, Next: safeNext(r.PostForm.Get("next"))}
	p := page{Title: "Log in", Data: view}

	if !s.sessions.AllowLogin(r.Context(), clientIP(r)) {
		p.Error = noticeTooManyLogins
		s.render(w, r, http.StatusTooManyRequests, "login", p)
		return
	}

	if errs := form.Validate(); errs.Any() {
		p.Errors = errs
		s.render(w, r, http.StatusUnprocessableEntity, "login", p)
		return
	}

	token, err := s.backend.Login(r.Context(), form.Credentials())
	if err != nil {
		s.logger.Info().Err(err).Str("email", form.Email).Msg("login rejected")
		p.Error = backend.Message(err, "Login failed")
		s.render(w, r, errorStatus(err), "login", p)
		return
	}

	if err := s.sessions.SignIn(r.Context(), sess, token); err != nil {
		s.logger.Error().Err(err).Msg("failed to start session")
		p.Error = "Login failed. Please try again."
		s.render(w, r, http.StatusBadGateway, "login", p)
		return
	}

	s.publish(events.EventUserLoggedIn, events.ActionPayload{ActorID: sess.UserID.String(), Detail: string(sess.Role)})
	s.redirect(w, r, orDefault(view.Next, landingFor(sess.Role)))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := s.sessions.SignOut(r.Context(), sess); err != nil {
		s.logger.Warn().Err(err).Msg("failed to drop session on logout")
	}
	sess.AddFlash(models.FlashInfo, "Logged out", "You have been logged out.")
	s.redirect(w, r, "/")
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r).Authenticated() {
		s.redirect(w, r, "/")
		return
	}
	s.render(w, r, http.StatusOK, "signup", page{Title: "Sign up", Data: &signupView{}})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.ParseSignup(r.PostForm)
	p := page{Title: "Sign up", Data: &signupView{Form: form}}

	if errs := form.Validate(); errs.Any() {
		p.Errors = errs
		s.render(w, r, http.StatusUnprocessableEntity, "signup", p)
		return
	}

	if err := s.backend.Register(r.Context(), form.Credentials(), form.Organizer); err != nil {
		p.Error = backend.Message(err, "Signup failed")
		s.render(w, r, errorStatus(err), "signup", p)
		return
	}

	kind := string(models.RoleUser)
	if form.Organizer {
		kind = string(models.RoleOrganizer)
	}
	s.publish(events.EventUserRegistered, events.ActionPayload{Detail: kind})
	s.flash(r, models.FlashSuccess, "Account created", "Check your e-mail to validate your account, then log in.")
	s.redirect(w, r, "/login")
}

func (s *Server) handleForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "forgot_password", page{Title: "Forgot password", Data: &forgotView{}})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.ParseForgotPassword(r.PostForm)
	p := page{Title: "Forgot password", Data: &forgotView{Form: form}}

	if errs := form.Validate(); errs.Any() {
		p.Errors = errs
		s.render(w, r, http.StatusUnprocessableEntity, "forgot_password", p)
		return
	}

	if err := s.backend.ForgotPassword(r.Context(), form.Email); err != nil {
		p.Error = backend.Message(err, "Could not send the reset e-mail")
		s.render(w, r, errorStatus(err), "forgot_password", p)
		return
	}

	s.flash(r, models.FlashSuccess, "Check your e-mail", "If an account exists for that address, a reset link is on its way.")
	s.redirect(w, r, "/login")
}

// resetToken decodes the reset link token. It must name a user.
func resetToken(raw string) (forms.ValidationToken, bool) {
	tok, err := forms.DecodeValidationToken(raw)
	if err != nil || tok.UserID == "" {
		return tok, false
	}
	return tok, true
}

func (s *Server) invalidResetLink(w http.ResponseWriter, r *http.Request) {
	s.flash(r, models.FlashError, "Invalid link", "This password reset link is invalid or has expired.")
	s.redirect(w, r, "/password-reset")
}

func (s *Server) handleResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("validationToken")
	if _, ok := resetToken(raw); !ok {
		s.invalidResetLink(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "reset_password", page{Title: "Reset password", Data: &resetView{Token: raw}})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	raw := orDefault(r.PostForm.Get("validationToken"), r.URL.Query().Get("validationToken"))
	tok, ok := resetToken(raw)
	if !ok {
		s.invalidResetLink(w, r)
		return
	}

	form := forms.ParseResetPassword(r.PostForm)
	p := page{Title: "Reset password", Data: &resetView{Token: raw}}
	if errs := form.Validate(); errs.Any() {
		p.Errors = errs
		s.render(w, r, http.StatusUnprocessableEntity, "reset_password", p)
		return
	}

	if err := s.backend.ResetPassword(r.Context(), tok.UserID, tok.Code, form.Password); err != nil {
		p.Error = backend.Message(err, "Password reset failed")
		s.render(w, r, errorStatus(err), "reset_password", p)
		return
	}

	s.flash(r, models.FlashSuccess, "Password reset", "You can now log in with your new password.")
	s.redirect(w, r, "/login")
}

// handleSetPassword confirms the account named by an e-mail validation link.
func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	tok, err := forms.DecodeValidationToken(r.URL.Query().Get("validationToken"))
	if err != nil || tok.Email == "" {
		s.flash(r, models.FlashError, "Invalid link", "This validation link is invalid or has expired.")
		s.redirect(w, r, "/login")
		return
	}

	if err := s.backend.ValidateAccount(r.Context(), tok.Email, tok.Code); err != nil {
		s.flash(r, models.FlashError, "Validation failed", backend.Message(err, "Account validation failed"))
		s.redirect(w, r, "/login")
		return
	}

	s.flash(r, models.FlashSuccess, "Account validated", "Your account is active. You can now log in.")
	s.redirect(w, r, "/login")
}
