package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"pulse/internal/format"
	"pulse/internal/forms"
	"pulse/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{
	"home", "search", "event", "book", "event_form",
	"dashboard", "login", "signup", "forgot_password", "reset_password",
	"account", "tickets", "not_found",
}

// page is the data every template receives.
type page struct {
	Title      string
	Session    *models.Session
	Flashes    []models.Flash
	Error      string
	Errors     forms.Errors
	MapTileURL string
	Data       any
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer(loc *time.Location) (*renderer, error) {
	funcs := templateFuncs(loc)
	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/partials.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func templateFuncs(loc *time.Location) template.FuncMap {
	local := func(t time.Time) time.Time { return t.In(loc) }
	return template.FuncMap{
		"price":      format.Price,
		"cents":      format.Cents,
		"dollars":    format.CentsToDollars,
		"plural":     format.Plural,
		"sanitize":   format.SanitizeHTML,
		"longDate":   func(t time.Time) string { return format.LongDate(local(t)) },
		"shortDate":  func(t time.Time) string { return format.ShortDate(local(t)) },
		"clock":      func(t time.Time) string { return format.Clock(local(t)) },
		"tagLabel":   func(t models.Tag) string { return t.Label() },
		"tagOptions": func() []models.TagOption { return models.TagOptions },
		"json": func(v any) (string, error) {
			raw, err := json.Marshal(v)
			return string(raw), err
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}
}

func (rd *renderer) execute(buf *bytes.Buffer, name string, data page) error {
	t, ok := rd.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(buf, "layout.html", data)
}

// render takes the pending notices, saves the session and writes the page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	sess := sessionFrom(r)
	p.Session = sess
	p.Flashes = sess.TakeFlashes()
	p.MapTileURL = s.cfg.Server.MapTileURL

	var buf bytes.Buffer
	if err := s.pages.execute(&buf, name, p); err != nil {
		s.logger.Error().Err(err).Str("page", name).Msg("failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.commit(w, r, sess)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect saves the session so queued notices survive, then sends 303.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string) {
	s.commit(w, r, sessionFrom(r))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) flash(r *http.Request, kind, title, message string) {
	sessionFrom(r).AddFlash(kind, title, message)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// wantsJSON reports whether the caller asked for a JSON reply instead of
// a redirect.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
