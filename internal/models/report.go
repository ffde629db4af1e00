package models

import "time"

type Report struct {
	IRI       string    `json:"@id,omitempty"`
	ID        ID        `json:"id"`
	Status    string    `json:"status"`
	Comment   string    `json:"comment"`
	Action    string    `json:"action,omitempty"`
	Reporter  *UserRef  `json:"userId,omitempty"`
	Event     *EventRef `json:"event,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (r *Report) Pending() bool { return r.Status != ReportResolved }

// ReportInput is the POST /reports body.
type ReportInput struct {
	Event   string `json:"event"`
	Comment string `json:"comment"`
}

// ValidResolution reports whether action is one the backend understands.
func ValidResolution(action string) bool {
	return action == ResolveFalseReport || action == ResolveCancelEvent
}

// AdminStats is the GET /dashboard/admin payload.
type AdminStats struct {
	Users   int   `json:"users"`
	Events  int   `json:"events"`
	Reports int   `json:"reports"`
	Revenue int64 `json:"revenue"`
}

// Collection is the hydra envelope used by every list endpoint.
type Collection[T any] struct {
	Members    []T `json:"hydra:member"`
	TotalItems int `json:"hydra:totalItems"`
}
