package backend

import (
	"context"
	"net/http"
	"net/url"

	"pulse/internal/models"
)

func (c *Client) ListReports(ctx context.Context, token string) (*models.Collection[models.Report], error) {
	var out models.Collection[models.Report]
	if err := c.doGet(ctx, token, "/reports", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReport flags an event for moderation.
func (c *Client) CreateReport(ctx context.Context, token string, in models.ReportInput) (*models.Report, error) {
	var out models.Report
	if err := c.doSend(ctx, http.MethodPost, token, "/reports", models.ContentLDJSON, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResolveReport(ctx context.Context, token string, id models.ID, action string) (*models.Report, error) {
	var out models.Report
	path := "/reports/" + url.PathEscape(id.String()) + "/resolve"
	body := map[string]string{"action": action}
	if err := c.doSend(ctx, http.MethodPost, token, path, models.ContentJSON, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
