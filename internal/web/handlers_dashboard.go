package web

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	"pulse/internal/backend"
	"pulse/internal/events"
	"pulse/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type dashboardView struct {
	Admin     bool
	Stats     *models.AdminStats
	Events    []models.Event
	Users     []models.User
	Bookings  []models.Booking
	Reports   []models.Report
	Published int
	Drafts    int
	Roles     []models.Role
}

// dashboardData loads the lists for the role the session claims. Each
// section that fails adds one message; the rest still render. expired is
// set when the backend rejected the session token.
func (s *Server) dashboardData(r *http.Request) (view *dashboardView, problems []string, expired bool) {
	ctx := r.Context()
	sess := sessionFrom(r)
	view = &dashboardView{
		Admin: sess.Role == models.RoleAdmin,
		Roles: []models.Role{models.RoleUser, models.RoleOrganizer, models.RoleAdmin},
	}
	fail := func(what string, err error) {
		s.logger.Warn().Err(err).Str("section", what).Msg("dashboard fetch failed")
		expired = expired || backend.IsUnauthorized(err)
		problems = append(problems, what+": "+backend.Message(err, backend.DefaultErrorMessage))
	}

	q := models.EventQuery{}
	if !view.Admin {
		q.Organizer = sess.UserID
	}
	if res, err := s.backend.SearchEvents(ctx, sess.Token, q); err != nil {
		fail("Events", err)
	} else {
		view.Events = res.Members
	}
	for i := range view.Events {
		switch view.Events[i].Status {
		case models.EventPublished:
			view.Published++
		case models.EventDraft:
			view.Drafts++
		}
	}

	if res, err := s.backend.ListBookings(ctx, sess.Token); err != nil {
		fail("Bookings", err)
	} else {
		view.Bookings = res.Members
	}

	if !view.Admin || expired {
		return view, problems, expired
	}

	if stats, err := s.backend.AdminStats(ctx, sess.Token); err != nil {
		fail("Statistics", err)
	} else {
		view.Stats = stats
	}
	if res, err := s.backend.ListUsers(ctx, sess.Token); err != nil {
		fail("Users", err)
	} else {
		view.Users = res.Members
	}
	if res, err := s.backend.ListReports(ctx, sess.Token); err != nil {
		fail("Reports", err)
	} else {
		view.Reports = res.Members
	}
	return view, problems, expired
}

// expireSession signs out a session whose token the backend refused and
// sends the visitor to log in again.
func (s *Server) expireSession(w http.ResponseWriter, r *http.Request, next string) {
	sess := sessionFrom(r)
	if err := s.sessions.SignOut(r.Context(), sess); err != nil {
		s.logger.Warn().Err(err).Msg("failed to drop expired session")
	}
	sess.AddFlash(models.FlashInfo, "Session expired", "Please log in again.")
	s.redirect(w, r, "/login?next="+url.QueryEscape(next))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r).Role == models.RoleUser || sessionFrom(r).Role == "" {
		s.redirect(w, r, "/account/tickets")
		return
	}
	view, problems, expired := s.dashboardData(r)
	if expired {
		s.expireSession(w, r, "/dashboard")
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", page{
		Title: "Dashboard",
		Error: strings.Join(problems, " "),
		Data:  view,
	})
}

func (s *Server) handleDashboardExport(w http.ResponseWriter, r *http.Request) {
	view, problems, expired := s.dashboardData(r)
	if expired {
		s.expireSession(w, r, "/dashboard")
		return
	}
	if len(problems) > 0 {
		s.flash(r, models.FlashError, "Export failed", strings.Join(problems, " "))
		s.redirect(w, r, "/dashboard")
		return
	}

	var buf bytes.Buffer
	if err := s.exporter.WriteDashboard(&buf, view.Events, view.Bookings); err != nil {
		s.logger.Error().Err(err).Msg("dashboard export failed")
		s.flash(r, models.FlashError, "Export failed", "Could not build the spreadsheet.")
		s.redirect(w, r, "/dashboard")
		return
	}

	name := "pulse-dashboard-" + s.now().In(s.loc).Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// rowResult is what the dashboard script needs to update a row in place.
type rowResult struct {
	ID     models.ID `json:"id"`
	Status string    `json:"status,omitempty"`
	Role   string    `json:"role,omitempty"`
	Action string    `json:"action,omitempty"`
}

// rowAction runs one backend call for a dashboard row and answers with the
// new row state as JSON, or a notice and a redirect for plain forms.
func (s *Server) rowAction(w http.ResponseWriter, r *http.Request, key, done string, call func() (rowResult, error)) {
	sess := sessionFrom(r)
	release, ok := s.inflight.acquire(sess.ID + ":" + key)
	if !ok {
		if wantsJSON(r) {
			writeError(w, http.StatusConflict, noticeInFlight)
			return
		}
		s.flash(r, models.FlashInfo, "Please wait", noticeInFlight)
		s.redirect(w, r, "/dashboard")
		return
	}
	defer release()

	res, err := call()
	if err != nil {
		msg := backend.Message(err, "Action failed")
		s.logger.Warn().Err(err).Str("action", key).Msg("dashboard action rejected")
		if wantsJSON(r) {
			writeError(w, errorStatus(err), msg)
			return
		}
		s.flash(r, models.FlashError, "Action failed", msg)
		s.redirect(w, r, "/dashboard")
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}
	s.flash(r, models.FlashSuccess, "Done", done)
	s.redirect(w, r, "/dashboard")
}

// formValue parses the body and returns a trimmed field, or "" on a bad body.
func formValue(r *http.Request, key string) string {
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return strings.TrimSpace(r.PostForm.Get(key))
}

func (s *Server) handleEventStatusAction(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	status := formValue(r, "status")
	if status != models.EventPublished && status != models.EventDraft {
		s.badRowInput(w, r, "Status must be published or draft")
		return
	}
	sess := sessionFrom(r)
	s.rowAction(w, r, "event:status:"+id.String(), "Event status updated.", func() (rowResult, error) {
		event, err := s.backend.SetEventStatus(r.Context(), sess.Token, id, status)
		if err != nil {
			return rowResult{}, err
		}
		s.publish(events.EventEventStatusChanged, events.ActionPayload{
			ActorID: sess.UserID.String(), EntityID: id.String(), Status: event.Status,
		})
		return rowResult{ID: id, Status: orDefault(event.Status, status)}, nil
	})
}

func (s *Server) handleEventCancelAction(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	sess := sessionFrom(r)
	s.rowAction(w, r, "event:cancel:"+id.String(), "Event canceled.", func() (rowResult, error) {
		event, err := s.backend.CancelEvent(r.Context(), sess.Token, id)
		if err != nil {
			return rowResult{}, err
		}
		s.publish(events.EventEventCanceled, events.ActionPayload{
			ActorID: sess.UserID.String(), EntityID: id.String(), Status: event.Status,
		})
		return rowResult{ID: id, Status: orDefault(event.Status, models.EventCanceled)}, nil
	})
}

func (s *Server) handleUserStatusAction(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	status := formValue(r, "status")
	if status != models.UserActive && status != models.UserInactive {
		s.badRowInput(w, r, "Status must be active or inactive")
		return
	}
	sess := sessionFrom(r)
	s.rowAction(w, r, "user:status:"+id.String(), "User status updated.", func() (rowResult, error) {
		user, err := s.backend.UpdateUser(r.Context(), sess.Token, id, map[string]string{"status": status})
		if err != nil {
			return rowResult{}, err
		}
		s.publish(events.EventUserStatusChanged, events.ActionPayload{
			ActorID: sess.UserID.String(), EntityID: id.String(), Status: user.Status,
		})
		return rowResult{ID: id, Status: orDefault(user.Status, status)}, nil
	})
}

func (s *Server) handleUserRoleAction(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	role := models.Role(strings.ToLower(formValue(r, "role")))
	if role != models.RoleUser && role != models.RoleOrganizer && role != models.RoleAdmin {
		s.badRowInput(w, r, "Unknown role")
		return
	}
	sess := sessionFrom(r)
	s.rowAction(w, r, "user:role:"+id.String(), "User role updated.", func() (rowResult, error) {
		user, err := s.backend.UpdateUser(r.Context(), sess.Token, id, map[string]string{"role": string(role)})
		if err != nil {
			return rowResult{}, err
		}
		s.publish(events.EventUserRoleChanged, events.ActionPayload{
			ActorID: sess.UserID.String(), EntityID: id.String(), Detail: string(role),
		})
		if user.Role != "" || len(user.Roles) > 0 {
			role = user.EffectiveRole()
		}
		return rowResult{ID: id, Role: string(role), Status: user.Status}, nil
	})
}

func (s *Server) handleBookingCancelAction(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	sess := sessionFrom(r)
	s.rowAction(w, r, "booking:cancel:"+id.String(), "Booking canceled.", func() (rowResult, error) {
		booking, err := s.backend.CancelBooking(r.Context(), sess.Token, id)
		if err != nil {
			return rowResult{}, err
		}
		s.publish(events.EventBookingCanceled, events.ActionPayload{
			ActorID: sess.UserID.String(), EntityID: id.String(), Status: booking.Status,
		})
		return rowResult{ID: id, Status: orDefault(booking.Status, models.BookingCancelled)}, nil
	})
}

func (s *Server) handleReportResolveAction(w http.ResponseWriter, r *http.Request) {
	id := urlID(r)
	action := formValue(r, "action")
	if !models.ValidResolution(action) {
		s.badRowInput(w, r, "Action must be false_report or cancel_event")
		return
	}
	sess := sessionFrom(r)
	s.rowAction(w, r, "report:resolve:"+id.String(), "Report resolved.", func() (rowResult, error) {
		report, err := s.backend.ResolveReport(r.Context(), sess.Token, id, action)
		if err != nil {
			return rowResult{}, err
		}
		s.publish(events.EventReportResolved, events.ActionPayload{
			ActorID: sess.UserID.String(), EntityID: id.String(), Status: report.Status, Detail: action,
		})
		return rowResult{ID: id, Status: orDefault(report.Status, models.ReportResolved), Action: action}, nil
	})
}

func (s *Server) badRowInput(w http.ResponseWriter, r *http.Request, msg string) {
	if wantsJSON(r) {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	s.flash(r, models.FlashError, "Action failed", msg)
	s.redirect(w, r, "/dashboard")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
