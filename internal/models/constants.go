package models

// Event statuses.
const (
	EventDraft     = "draft"
	EventPublished = "published"
	EventCanceled  = "canceled"
)

// Booking statuses.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// User statuses.
const (
	UserActive   = "active"
	UserInactive = "inactive"
)

// Report statuses and resolution actions.
const (
	ReportPending  = "pending"
	ReportResolved = "resolved"

	ResolveFalseReport = "false_report"
	ResolveCancelEvent = "cancel_event"
)

// Content types understood by the backend.
const (
	ContentJSON       = "application/json"
	ContentLDJSON     = "application/ld+json"
	ContentMergePatch = "application/merge-patch+json"
)

const (
	// DefaultSessionTTLSeconds is how long a login lasts without activity.
	DefaultSessionTTLSeconds = 24 * 60 * 60

	// MaxFlashes caps the queued notices per session.
	MaxFlashes = 5

	// ThumbnailMaxBytes bounds the multipart thumbnail upload.
	ThumbnailMaxBytes = 8 << 20
)
