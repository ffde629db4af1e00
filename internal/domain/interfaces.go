package domain

import (
	"context"
	"io"
	"time"

	"pulse/internal/models"
)

// Backend is the platform API. Every method takes the caller's bearer
// token; "" makes an anonymous call.
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (string, error)
	Register(ctx context.Context, creds models.Credentials, organizer bool) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, userID models.ID, code, password string) error
	ValidateAccount(ctx context.Context, email, code string) error

	SearchEvents(ctx context.Context, token string, q models.EventQuery) (*models.Collection[models.Event], error)
	GetEvent(ctx context.Context, token string, id models.ID) (*models.Event, error)
	CreateEvent(ctx context.Context, token string, in models.EventInput) (*models.Event, error)
	UpdateEvent(ctx context.Context, token string, id models.ID, patch any) (*models.Event, error)
	SetEventStatus(ctx context.Context, token string, id models.ID, status string) (*models.Event, error)
	CancelEvent(ctx context.Context, token string, id models.ID) (*models.Event, error)

	ListBookings(ctx context.Context, token string) (*models.Collection[models.Booking], error)
	CreateBooking(ctx context.Context, token string, in models.BookingInput) (*models.Booking, error)
	CancelBooking(ctx context.Context, token string, id models.ID) (*models.Booking, error)

	GetUser(ctx context.Context, token string, id models.ID) (*models.User, error)
	ListUsers(ctx context.Context, token string) (*models.Collection[models.User], error)
	UpdateUser(ctx context.Context, token string, id models.ID, patch any) (*models.User, error)
	AdminStats(ctx context.Context, token string) (*models.AdminStats, error)

	ListReports(ctx context.Context, token string) (*models.Collection[models.Report], error)
	CreateReport(ctx context.Context, token string, in models.ReportInput) (*models.Report, error)
	ResolveReport(ctx context.Context, token string, id models.ID, action string) (*models.Report, error)
}

// ImageUploader hosts an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, filename string, image io.Reader) (string, error)
}

// SessionRepository stores sessions by id. GetSession returns nil, nil for
// an unknown or expired id.
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, id string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Exporter renders dashboard rows as a spreadsheet.
type Exporter interface {
	WriteDashboard(w io.Writer, events []models.Event, bookings []models.Booking) error
}
