package backend

import (
	"context"
	"net/http"
	"net/url"

	"pulse/internal/models"
)

// ListBookings returns the bookings visible to token: the caller's own, or
// all of them for an administrator.
func (c *Client) ListBookings(ctx context.Context, token string) (*models.Collection[models.Booking], error) {
	var out models.Collection[models.Booking]
	if err := c.doGet(ctx, token, "/bookings", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBooking(ctx context.Context, token string, in models.BookingInput) (*models.Booking, error) {
	var out models.Booking
	if err := c.doSend(ctx, http.MethodPost, token, "/bookings", models.ContentLDJSON, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelBooking(ctx context.Context, token string, id models.ID) (*models.Booking, error) {
	var out models.Booking
	path := "/bookings/" + url.PathEscape(id.String()) + "/cancel"
	if err := c.doSend(ctx, http.MethodPost, token, path, models.ContentJSON, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
