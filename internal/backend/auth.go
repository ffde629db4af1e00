package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"pulse/internal/models"
)

// ErrNoToken is returned when /auth succeeds without a token in the body.
var ErrNoToken = errors.New("backend returned no token")

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var resp models.AuthToken
	if err := c.doSend(ctx, http.MethodPost, "", "/auth", models.ContentJSON, creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrNoToken
	}
	return resp.Token, nil
}

// Register creates an attendee account, or an organizer account when
// organizer is set.
func (c *Client) Register(ctx context.Context, creds models.Credentials, organizer bool) error {
	path := "/auth/register"
	if organizer {
		path = "/auth/register/organizer"
	}
	return c.doSend(ctx, http.MethodPost, "", path, models.ContentJSON, creds, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.doSend(ctx, http.MethodPost, "", "/auth/forgot-password", models.ContentJSON, body, nil)
}

func (c *Client) ResetPassword(ctx context.Context, userID models.ID, code, password string) error {
	q := url.Values{"userId": {userID.String()}, "code": {code}}
	body := map[string]string{"password": password}
	return c.doSend(ctx, http.MethodPost, "", "/auth/reset-password?"+q.Encode(), models.ContentJSON, body, nil)
}

// ValidateAccount confirms an e-mail address from a validation link.
func (c *Client) ValidateAccount(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "code": code}
	return c.doSend(ctx, http.MethodPost, "", "/users/validation", models.ContentJSON, body, nil)
}
