package web

import (
	"errors"
	"net/http"

	"pulse/internal/backend"
	"pulse/internal/events"
	"pulse/internal/forms"
	"pulse/internal/imgbb"
	"pulse/internal/models"
)

const noticeNotOrganizer = "You are not authorized to edit this event."

type eventFormView struct {
	Event  *models.Event
	Form   forms.EventForm
	Action string
}

func (v *eventFormView) Editing() bool { return v.Event != nil }

func (v *eventFormView) HasTag(t models.Tag) bool { return v.Form.HasTag(t) }

// submitStatus maps the submit button onto the event status.
func submitStatus(r *http.Request) string {
	if r.PostForm.Get("action") == "publish" {
		return models.EventPublished
	}
	return models.EventDraft
}

// parseEventRequest accepts multipart (with a thumbnail) and plain
// url-encoded submissions.
func parseEventRequest(r *http.Request) error {
	err := r.ParseMultipartForm(models.ThumbnailMaxBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// uploadThumbnail sends the selected file to the image host and stores the
// hosted URL on the form. No file is not an error.
func (s *Server) uploadThumbnail(r *http.Request, form *forms.EventForm) error {
	if r.MultipartForm == nil {
		return nil
	}
	file, hdr, err := r.FormFile("thumbnail")
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()
	if hdr.Size == 0 {
		return nil
	}

	url, err := s.images.Upload(r.Context(), hdr.Filename, file)
	if err != nil {
		return err
	}
	form.Thumbnail = url
	return nil
}

func (s *Server) handleEventCreatePage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "event_form", page{
		Title: "Create event",
		Data:  &eventFormView{Action: "/event/create"},
	})
}

func (s *Server) handleEventCreate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	release, ok := s.inflight.acquire(sess.ID + ":event:create")
	if !ok {
		s.flash(r, models.FlashInfo, "Please wait", noticeInFlight)
		s.redirect(w, r, "/event/create")
		return
	}
	defer release()

	if err := parseEventRequest(r); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := forms.ParseEvent(r.PostForm)
	view := &eventFormView{Form: form, Action: "/event/create"}
	p := page{Title: "Create event", Data: view}

	in, status, ok := s.prepareEvent(w, r, view, &p)
	if !ok {
		return
	}

	event, err := s.backend.CreateEvent(r.Context(), sess.Token, in)
	if err != nil {
		s.logger.Warn().Err(err).Msg("event create rejected")
		p.Error = backend.Message(err, "Failed to create the event")
		s.render(w, r, errorStatus(err), "event_form", p)
		return
	}

	s.publish(events.EventEventCreated, events.ActionPayload{
		ActorID:  sess.UserID.String(),
		EntityID: event.ID.String(),
		Status:   status,
	})
	s.flash(r, models.FlashSuccess, "Event created", eventSavedMessage(status))
	s.redirect(w, r, eventPath(event.ID))
}

func (s *Server) handleEventEditPage(w http.ResponseWriter, r *http.Request) {
	event, ok := s.fetchOwnedEvent(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "event_form", page{
		Title: "Edit " + event.Title,
		Data: &eventFormView{
			Event:  event,
			Form:   forms.EventFormFrom(event, s.loc),
			Action: eventPath(event.ID) + "/edit",
		},
	})
}

func (s *Server) handleEventEdit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := urlID(r)
	release, ok := s.inflight.acquire(sess.ID + ":event:edit:" + id.String())
	if !ok {
		s.flash(r, models.FlashInfo, "Please wait", noticeInFlight)
		s.redirect(w, r, eventPath(id)+"/edit")
		return
	}
	defer release()

	if err := parseEventRequest(r); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	event, ok := s.fetchOwnedEvent(w, r)
	if !ok {
		return
	}

	form := forms.ParseEvent(r.PostForm)
	view := &eventFormView{Event: event, Form: form, Action: eventPath(event.ID) + "/edit"}
	p := page{Title: "Edit " + event.Title, Data: view}

	in, status, ok := s.prepareEvent(w, r, view, &p)
	if !ok {
		return
	}

	updated, err := s.backend.UpdateEvent(r.Context(), sess.Token, event.ID, in)
	if err != nil {
		s.logger.Warn().Err(err).Str("event_id", event.ID.String()).Msg("event update rejected")
		p.Error = backend.Message(err, "Failed to update the event")
		s.render(w, r, errorStatus(err), "event_form", p)
		return
	}

	s.publish(events.EventEventUpdated, events.ActionPayload{
		ActorID:  sess.UserID.String(),
		EntityID: updated.ID.String(),
		Status:   status,
	})
	s.flash(r, models.FlashSuccess, "Event updated", eventSavedMessage(status))
	s.redirect(w, r, eventPath(event.ID))
}

// prepareEvent validates the form, uploads the thumbnail and builds the
// backend body. It renders the form itself when anything fails.
func (s *Server) prepareEvent(w http.ResponseWriter, r *http.Request, view *eventFormView, p *page) (models.EventInput, string, bool) {
	errs := view.Form.Validate()
	if errs.Any() {
		p.Errors = errs
		s.render(w, r, http.StatusUnprocessableEntity, "event_form", *p)
		return models.EventInput{}, "", false
	}

	if err := s.uploadThumbnail(r, &view.Form); err != nil {
		s.logger.Warn().Err(err).Msg("thumbnail upload failed")
		p.Error = "Thumbnail upload failed: " + imgbb.Message(err, "the image host is unavailable. Please try again.")
		s.render(w, r, http.StatusBadGateway, "event_form", *p)
		return models.EventInput{}, "", false
	}

	status := submitStatus(r)
	in, err := view.Form.Input(s.loc, status)
	if err != nil {
		p.Error = err.Error()
		s.render(w, r, http.StatusUnprocessableEntity, "event_form", *p)
		return models.EventInput{}, "", false
	}
	return in, status, true
}

// fetchOwnedEvent loads the event and sends anyone but its organizer back
// to the detail page.
func (s *Server) fetchOwnedEvent(w http.ResponseWriter, r *http.Request) (*models.Event, bool) {
	event, ok := s.fetchEvent(w, r)
	if !ok {
		return nil, false
	}
	if event.OrganizerID() == "" || event.OrganizerID() != sessionFrom(r).UserID {
		s.flash(r, models.FlashError, "Not allowed", noticeNotOrganizer)
		s.redirect(w, r, eventPath(event.ID))
		return nil, false
	}
	return event, true
}

func eventSavedMessage(status string) string {
	if status == models.EventPublished {
		return "Your event is published."
	}
	return "Your event was saved as a draft."
}
