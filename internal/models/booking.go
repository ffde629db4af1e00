package models

import "time"

type Booking struct {
	IRI       string    `json:"@id,omitempty"`
	ID        ID        `json:"id"`
	Units     int       `json:"units"`
	Status    string    `json:"status"`
	Event     *EventRef `json:"event,omitempty"`
	User      *UserRef  `json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Total is the booking cost in cents, or 0 without embedded event data.
func (b *Booking) Total() int64 {
	if b.Event == nil {
		return 0
	}
	return b.Event.Price * int64(b.Units)
}

// Cancellable reports whether the owner may still cancel at now.
func (b *Booking) Cancellable(now time.Time) bool {
	if b.Status == BookingCancelled {
		return false
	}
	if b.Event == nil {
		return true
	}
	return !b.Event.Started(now)
}

// BookingInput is the POST /bookings body.
type BookingInput struct {
	Units int    `json:"units"`
	Event string `json:"event"`
}
