package web

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"pulse/internal/backend"
	"pulse/internal/events"
	"pulse/internal/forms"
	"pulse/internal/models"
)

type accountView struct {
	User *models.User
	Form forms.ProfileForm
}

type ticketRow struct {
	models.Booking
	CanCancel bool
}

type ticketsView struct {
	Tickets []ticketRow
}

func (s *Server) handleAccountPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	view := &accountView{}
	p := page{Title: "Account", Data: view}

	user, err := s.backend.GetUser(r.Context(), sess.Token, sess.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load profile")
		p.Error = backend.Message(err, "Could not load your profile")
		s.render(w, r, errorStatus(err), "account", p)
		return
	}
	view.User = user
	view.Form = forms.ProfileFormFrom(user)
	s.render(w, r, http.StatusOK, "account", p)
}

func (s *Server) handleAccountUpdate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	release, ok := s.inflight.acquire(sess.ID + ":profile")
	if !ok {
		s.flash(r, models.FlashInfo, "Please wait", noticeInFlight)
		s.redirect(w, r, "/account")
		return
	}
	defer release()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := forms.ParseProfile(r.PostForm)
	view := &accountView{Form: form}
	p := page{Title: "Account", Data: view}

	user, err := s.backend.GetUser(r.Context(), sess.Token, sess.UserID)
	if err != nil {
		p.Error = backend.Message(err, "Could not load your profile")
		s.render(w, r, errorStatus(err), "account", p)
		return
	}
	view.User = user

	if errs := form.Validate(); errs.Any() {
		p.Errors = errs
		s.render(w, r, http.StatusUnprocessableEntity, "account", p)
		return
	}

	delta := form.Delta(user)
	if len(delta) == 0 {
		s.flash(r, models.FlashInfo, "No changes detected", "Please update fields to save changes.")
		s.redirect(w, r, "/account")
		return
	}

	if _, err := s.backend.UpdateUser(r.Context(), sess.Token, user.ID, delta); err != nil {
		p.Error = backend.Message(err, "Failed to update profile. Please try again.")
		s.render(w, r, errorStatus(err), "account", p)
		return
	}

	fields := make([]string, 0, len(delta))
	for k := range delta {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	s.publish(events.EventProfileUpdated, events.ActionPayload{
		ActorID: sess.UserID.String(), EntityID: user.ID.String(), Detail: strings.Join(fields, ","),
	})
	s.flash(r, models.FlashSuccess, "Profile updated", "Your profile has been successfully updated.")
	s.redirect(w, r, "/account")
}

func (s *Server) handleTickets(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	view := &ticketsView{}
	p := page{Title: "My tickets", Data: view}

	res, err := s.backend.ListBookings(r.Context(), sess.Token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load tickets")
		p.Error = backend.Message(err, "Could not load your tickets")
		s.render(w, r, errorStatus(err), "tickets", p)
		return
	}

	now := s.now()
	for _, b := range res.Members {
		view.Tickets = append(view.Tickets, ticketRow{Booking: b, CanCancel: b.Cancellable(now)})
	}
	s.render(w, r, http.StatusOK, "tickets", p)
}

func (s *Server) handleTicketCancel(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := urlID(r)
	release, ok := s.inflight.acquire(sess.ID + ":booking:cancel:" + id.String())
	if !ok {
		s.flash(r, models.FlashInfo, "Please wait", noticeInFlight)
		s.redirect(w, r, "/account/tickets")
		return
	}
	defer release()

	booking, err := s.backend.CancelBooking(r.Context(), sess.Token, id)
	if err != nil {
		s.flash(r, models.FlashError, "Cancellation failed", backend.Message(err, "Failed to cancel the booking. Please try again."))
		s.redirect(w, r, "/account/tickets")
		return
	}

	s.publish(events.EventBookingCanceled, events.ActionPayload{
		ActorID: sess.UserID.String(), EntityID: id.String(), Status: booking.Status,
	})
	s.flash(r, models.FlashSuccess, "Booking canceled", "Your booking has been canceled.")
	s.redirect(w, r, "/account/tickets")
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "not_found", page{Title: "Not found"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
