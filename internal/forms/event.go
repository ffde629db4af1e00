package forms

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"pulse/internal/format"
	"pulse/internal/models"
)

// DateTimeLayout is the <input type="datetime-local"> value format.
const DateTimeLayout = format.DateTimeLocalLayout

// EventForm is the create/edit event form. Lat and Long are filled by the
// place autocomplete widget.
type EventForm struct {
	Title     string   `form:"title" validate:"required"`
	Timestamp string   `form:"timestamp" validate:"required,datetime=2006-01-02T15:04"`
	Place     string   `form:"place" validate:"required"`
	Lat       string   `form:"lat" validate:"omitempty,latitude"`
	Long      string   `form:"long" validate:"omitempty,longitude"`
	Overview  string   `form:"overview" validate:"required"`
	Tags      []string `form:"tags" validate:"min=1,dive,eventtag"`
	Unlimited bool     `form:"unlimited"`
	Capacity  string   `form:"capacity" validate:"required_if=Unlimited false"`
	Price     string   `form:"price" validate:"required,price"`
	Thumbnail string   `form:"thumbnail" validate:"omitempty,url"`
}

var eventMessages = map[string]string{
	"title.required":       "Title is required",
	"timestamp.required":   "Date and time are required",
	"timestamp.datetime":   "Date and time are invalid",
	"place.required":       "Location is required",
	"lat.latitude":         "Pick a location from the suggestions",
	"long.longitude":       "Pick a location from the suggestions",
	"overview.required":    "Overview is required",
	"tags.min":             "At least one tag is required",
	"tags.eventtag":        "Unknown tag",
	"capacity.required_if": "Capacity is required when not unlimited",
	"capacity.mincap":      "Capacity must be at least 1",
	"capacity.toolarge":    "Capacity is too large",
	"price.required":       "Price is required",
	"price.price":          "Price must be non-negative",
	"thumbnail.url":        "Thumbnail must be a URL",
}

// ParseEvent decodes a posted event form. Tags may come as repeated
// checkbox values or one comma-separated field.
func ParseEvent(v url.Values) EventForm {
	var tags []string
	for _, t := range models.ParseTags(append(append([]string(nil), v["tags"]...), v["tags[]"]...)...) {
		tags = append(tags, string(t))
	}
	unlimited, _ := strconv.ParseBool(v.Get("unlimited"))
	if v.Get("unlimited") == "on" {
		unlimited = true
	}
	return EventForm{
		Title:     strings.TrimSpace(v.Get("title")),
		Timestamp: strings.TrimSpace(v.Get("timestamp")),
		Place:     strings.TrimSpace(v.Get("place")),
		Lat:       strings.TrimSpace(v.Get("lat")),
		Long:      strings.TrimSpace(v.Get("long")),
		Overview:  strings.TrimSpace(v.Get("overview")),
		Tags:      tags,
		Unlimited: unlimited,
		Capacity:  strings.TrimSpace(v.Get("capacity")),
		Price:     strings.TrimSpace(v.Get("price")),
		Thumbnail: strings.TrimSpace(v.Get("thumbnailUrl")),
	}
}

// EventFormFrom prefills the edit form from an existing event.
func EventFormFrom(e *models.Event, loc *time.Location) EventForm {
	f := EventForm{
		Title:     e.Title,
		Place:     e.Place,
		Overview:  e.Overview,
		Unlimited: e.Unlimited,
		Price:     format.CentsToDollars(e.Price),
		Thumbnail: e.Thumbnail,
	}
	if !e.Timestamp.IsZero() {
		f.Timestamp = format.DateTimeLocal(e.Timestamp.In(loc))
	}
	if e.Lat != 0 || e.Long != 0 {
		f.Lat = strconv.FormatFloat(e.Lat, 'f', -1, 64)
		f.Long = strconv.FormatFloat(e.Long, 'f', -1, 64)
	}
	if !e.Unlimited {
		f.Capacity = strconv.Itoa(e.Capacity)
	}
	for _, t := range e.Tags {
		f.Tags = append(f.Tags, string(t))
	}
	return f
}

func (f *EventForm) Validate() Errors {
	return check(f, eventMessages)
}

// HasTag is used by the template to keep checkboxes ticked.
func (f *EventForm) HasTag(t models.Tag) bool {
	for _, s := range f.Tags {
		if s == string(t) {
			return true
		}
	}
	return false
}

// Input converts a validated form into the backend body. The timestamp is
// read in loc and prices are converted from dollars to cents.
func (f *EventForm) Input(loc *time.Location, status string) (models.EventInput, error) {
	ts, err := time.ParseInLocation(DateTimeLayout, f.Timestamp, loc)
	if err != nil {
		return models.EventInput{}, fmt.Errorf("parse timestamp: %w", err)
	}
	price, err := format.ParseDollars(f.Price)
	if err != nil {
		return models.EventInput{}, fmt.Errorf("parse price: %w", err)
	}

	in := models.EventInput{
		Title:     f.Title,
		Timestamp: ts,
		Place:     f.Place,
		Overview:  f.Overview,
		Tags:      models.ParseTags(f.Tags...),
		Unlimited: f.Unlimited,
		Price:     price,
		Status:    status,
		Thumbnail: f.Thumbnail,
	}
	if f.Lat != "" && f.Long != "" {
		in.Lat, _ = strconv.ParseFloat(f.Lat, 64)
		in.Long, _ = strconv.ParseFloat(f.Long, 64)
	}
	if !f.Unlimited {
		in.Capacity, _ = strconv.Atoi(strings.TrimPrefix(f.Capacity, "+"))
	}
	return in, nil
}

func eventStructLevel(sl validator.StructLevel) {
	f := sl.Current().Interface().(EventForm)
	if f.Unlimited || f.Capacity == "" {
		return
	}
	if !wholeRe.MatchString(f.Capacity) {
		sl.ReportError(f.Capacity, "capacity", "Capacity", "mincap", "1")
		return
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(f.Capacity, "+"), 10, 64)
	switch {
	case err == nil && n < 1:
		sl.ReportError(f.Capacity, "capacity", "Capacity", "mincap", "1")
	case err != nil || n > maxUnits:
		sl.ReportError(f.Capacity, "capacity", "Capacity", "toolarge", "")
	}
}
