package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pulse/internal/backend"
	"pulse/internal/events"
	"pulse/internal/forms"
	"pulse/internal/models"
)

type eventView struct {
	Event   *models.Event
	IsOwner bool
	Started bool
	CanBook bool
}

type bookView struct {
	Event *models.Event
	Form  forms.BookingForm
	Total int64
}

func urlID(r *http.Request) models.ID {
	return models.ID(chi.URLParam(r, "id"))
}

func eventPath(id models.ID) string { return "/event/" + id.String() }

// errorStatus maps a backend failure onto the page status: client errors
// keep their status, everything else is a bad gateway.
func errorStatus(err error) int {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

// fetchEvent loads the event named in the URL. On failure it has already
// written a response and returns false.
func (s *Server) fetchEvent(w http.ResponseWriter, r *http.Request) (*models.Event, bool) {
	id := urlID(r)
	event, err := s.backend.GetEvent(r.Context(), sessionFrom(r).Token, id)
	if err == nil {
		return event, true
	}
	if backend.IsNotFound(err) {
		s.handleNotFound(w, r)
		return nil, false
	}
	s.logger.Warn().Err(err).Str("event_id", id.String()).Msg("failed to load event")
	s.render(w, r, errorStatus(err), "event", page{
		Title: "Event",
		Error: backend.Message(err, "Could not load this event"),
		Data:  &eventView{},
	})
	return nil, false
}

func (s *Server) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	event, ok := s.fetchEvent(w, r)
	if !ok {
		return
	}
	sess := sessionFrom(r)
	started := event.Started(s.now())
	view := &eventView{
		Event:   event,
		IsOwner: sess.Authenticated() && event.OrganizerID() != "" && event.OrganizerID() == sess.UserID,
		Started: started,
		CanBook: !event.SoldOut() && !started && event.Status != models.EventCanceled,
	}
	s.render(w, r, http.StatusOK, "event", page{Title: event.Title, Data: view})
}

func (s *Server) handleBookPage(w http.ResponseWriter, r *http.Request) {
	event, ok := s.fetchEvent(w, r)
	if !ok {
		return
	}
	if event.SoldOut() {
		s.flash(r, models.FlashError, models.PhraseSoldOut, "There are no tickets left for this event.")
		s.redirect(w, r, eventPath(event.ID))
		return
	}
	form := forms.BookingForm{Quantity: "1", Units: 1}
	s.render(w, r, http.StatusOK, "book", page{
		Title: "Book " + event.Title,
		Data:  &bookView{Event: event, Form: form, Total: form.Total(event)},
	})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := urlID(r)
	release, ok := s.inflight.acquire(sess.ID + ":book:" + id.String())
	if !ok {
		s.flash(r, models.FlashInfo, "Please wait", noticeInFlight)
		s.redirect(w, r, eventPath(id)+"/book")
		return
	}
	defer release()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	event, ok := s.fetchEvent(w, r)
	if !ok {
		return
	}

	form := forms.ParseBooking(r.PostForm)
	errs := form.Validate(event)
	view := &bookView{Event: event, Form: form, Total: form.Total(event)}
	if form.Units == 0 {
		view.Total = event.Price
	}
	p := page{Title: "Book " + event.Title, Errors: errs, Data: view}
	if errs.Any() {
		s.render(w, r, http.StatusUnprocessableEntity, "book", p)
		return
	}

	booking, err := s.backend.CreateBooking(r.Context(), sess.Token, form.Input(event))
	if err != nil {
		s.logger.Warn().Err(err).Str("event_id", id.String()).Msg("booking rejected")
		p.Error = backend.Message(err, "Booking failed")
		s.render(w, r, errorStatus(err), "book", p)
		return
	}

	s.publish(events.EventBookingCreated, events.ActionPayload{
		ActorID:  sess.UserID.String(),
		EntityID: booking.ID.String(),
		Units:    form.Units,
		Amount:   view.Total,
		Detail:   event.IRIOrPath(),
	})
	s.flash(r, models.FlashSuccess, "Booking Successful", "Your tickets have been booked successfully.")
	s.redirect(w, r, "/account/tickets")
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := urlID(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	comment := strings.TrimSpace(r.PostForm.Get("comment"))
	if comment == "" {
		s.flash(r, models.FlashError, "Report not sent", "Please describe the problem.")
		s.redirect(w, r, eventPath(id))
		return
	}

	release, ok := s.inflight.acquire(sess.ID + ":report:" + id.String())
	if !ok {
		s.flash(r, models.FlashInfo, "Please wait", noticeInFlight)
		s.redirect(w, r, eventPath(id))
		return
	}
	defer release()

	report, err := s.backend.CreateReport(r.Context(), sess.Token, models.ReportInput{
		Event:   models.EventIRI(id),
		Comment: comment,
	})
	if err != nil {
		s.flash(r, models.FlashError, "Report not sent", backend.Message(err, "Failed to send the report. Please try again."))
		s.redirect(w, r, eventPath(id))
		return
	}

	s.publish(events.EventReportCreated, events.ActionPayload{
		ActorID:  sess.UserID.String(),
		EntityID: report.ID.String(),
		Detail:   models.EventIRI(id),
	})
	s.flash(r, models.FlashSuccess, "Report sent", "Thanks, an administrator will review this event.")
	s.redirect(w, r, eventPath(id))
}
