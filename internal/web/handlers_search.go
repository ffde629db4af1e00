package web

import (
	"net/http"
	"net/url"
	"strings"

	"pulse/internal/backend"
	"pulse/internal/format"
	"pulse/internal/models"
)

type marker struct {
	ID    models.ID `json:"id"`
	Lat   float64   `json:"lat"`
	Long  float64   `json:"long"`
	Place string    `json:"place"`
	Price string    `json:"price"`
}

type searchView struct {
	Query   models.EventQuery
	Results []models.Event
	Total   int
	Markers []marker
}

// HasTag reports whether t is among the selected filters.
func (v searchView) HasTag(t models.Tag) bool {
	for _, q := range v.Query.Tags {
		if q == t {
			return true
		}
	}
	return false
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home", page{Title: "Discover events", Data: &searchView{}})
}

// parseSearch reads the filters from the URL. Tags may be repeated, sent
// as tags[] or comma separated.
func parseSearch(v url.Values) models.EventQuery {
	raw := append(append([]string(nil), v["tags"]...), v["tags[]"]...)
	return models.EventQuery{
		Title: strings.TrimSpace(v.Get("title")),
		Place: strings.TrimSpace(v.Get("place")),
		Tags:  models.ParseTags(raw...),
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := parseSearch(r.URL.Query())
	view := searchView{Query: q}
	p := page{Title: "Search events", Data: &view}

	res, err := s.backend.SearchEvents(r.Context(), sessionFrom(r).Token, q)
	if err != nil {
		s.logger.Warn().Err(err).Msg("event search failed")
		p.Error = backend.Message(err, "Could not load events")
		s.render(w, r, http.StatusOK, "search", p)
		return
	}

	view.Results = res.Members
	view.Total = res.TotalItems
	for i := range res.Members {
		e := &res.Members[i]
		if e.Lat == 0 && e.Long == 0 {
			continue
		}
		view.Markers = append(view.Markers, marker{
			ID: e.ID, Lat: e.Lat, Long: e.Long, Place: e.Place, Price: format.Price(e.Price),
		})
	}
	s.render(w, r, http.StatusOK, "search", p)
}
