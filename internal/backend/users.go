package backend

import (
	"context"
	"net/http"
	"net/url"

	"pulse/internal/models"
)

func (c *Client) GetUser(ctx context.Context, token string, id models.ID) (*models.User, error) {
	var out models.User
	if err := c.doGet(ctx, token, "/users/"+url.PathEscape(id.String()), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context, token string) (*models.Collection[models.User], error) {
	var out models.Collection[models.User]
	if err := c.doGet(ctx, token, "/users", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser sends patch as a JSON merge patch. Profile edits, status and
// role changes all go through here.
func (c *Client) UpdateUser(ctx context.Context, token string, id models.ID, patch any) (*models.User, error) {
	var out models.User
	path := "/users/" + url.PathEscape(id.String())
	if err := c.doSend(ctx, http.MethodPatch, token, path, models.ContentMergePatch, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminStats returns the dashboard KPIs.
func (c *Client) AdminStats(ctx context.Context, token string) (*models.AdminStats, error) {
	var out models.AdminStats
	if err := c.doGet(ctx, token, "/dashboard/admin", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
