package models

import "time"

// Event is the backend event resource.
type Event struct {
	IRI       string    `json:"@id,omitempty"`
	ID        ID        `json:"id"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	Place     string    `json:"place"`
	Lat       float64   `json:"lat"`
	Long      float64   `json:"long"`
	Overview  string    `json:"overview"`
	Tags      []Tag     `json:"tags"`
	Status    string    `json:"status"`
	Capacity  int       `json:"capacity"`
	Remaining int       `json:"remaining"`
	Unlimited bool      `json:"unlimited"`
	// Price is in cents.
	Price     int64    `json:"price"`
	Organizer *UserRef `json:"organizer,omitempty"`
	Bookings  []string `json:"bookings,omitempty"`
	Reports   []string `json:"reports,omitempty"`
}

// Ticket button phrases.
const (
	PhraseGetTicket     = "Get Ticket"
	PhraseBuyTickets    = "Buy Tickets"
	PhraseGetTicketFree = "Get Ticket for Free"
	PhraseSoldOut       = "Sold Out"
)

func (e *Event) IsFree() bool { return e.Price == 0 }

// SoldOut reports whether a limited event has no tickets left.
func (e *Event) SoldOut() bool { return !e.Unlimited && e.Remaining <= 0 }

// TicketPhrase picks the purchase button label. Unlimited wins over
// remaining, remaining over price.
func (e *Event) TicketPhrase() string {
	switch {
	case e.Unlimited && e.IsFree():
		return PhraseGetTicket
	case e.Unlimited:
		return PhraseBuyTickets
	case e.Remaining > 0 && e.IsFree():
		return PhraseGetTicketFree
	case e.Remaining > 0:
		return PhraseBuyTickets
	default:
		return PhraseSoldOut
	}
}

// MaxUnits returns the booking upper bound and whether one applies.
func (e *Event) MaxUnits() (int, bool) {
	if e.Unlimited {
		return 0, false
	}
	return e.Remaining, true
}

// OrganizerID returns the organizer id or "" when the event has none.
func (e *Event) OrganizerID() ID {
	if e.Organizer == nil {
		return ""
	}
	return e.Organizer.ID
}

// OrganizerEmail returns the embedded organizer email when the backend sent one.
func (e *Event) OrganizerEmail() string {
	if e.Organizer == nil {
		return ""
	}
	return e.Organizer.Email
}

// Started reports whether the event start is at or before now.
func (e *Event) Started(now time.Time) bool {
	return !e.Timestamp.IsZero() && !now.Before(e.Timestamp)
}

// IRIOrPath returns the event IRI, deriving it from the id when absent.
func (e *Event) IRIOrPath() string {
	if e.IRI != "" {
		return e.IRI
	}
	return EventIRI(e.ID)
}

// EventInput is the body sent on create (POST) and edit (merge-patch).
type EventInput struct {
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	Place     string    `json:"place"`
	Lat       float64   `json:"lat"`
	Long      float64   `json:"long"`
	Overview  string    `json:"overview"`
	Tags      []Tag     `json:"tags"`
	Capacity  int       `json:"capacity"`
	Unlimited bool      `json:"unlimited"`
	Price     int64     `json:"price"`
	Status    string    `json:"status"`
	Thumbnail string    `json:"thumbnail,omitempty"`
}

// EventQuery is the search filter forwarded to GET /events.
type EventQuery struct {
	Title     string
	Place     string
	Tags      []Tag
	Organizer ID
	Status    string
}
