package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"pulse/internal/models"
)

// SearchEvents forwards the search filter to GET /events.
func (c *Client) SearchEvents(ctx context.Context, token string, q models.EventQuery) (*models.Collection[models.Event], error) {
	var out models.Collection[models.Event]
	if err := c.doGet(ctx, token, "/events"+eventQuery(q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func eventQuery(q models.EventQuery) string {
	v := url.Values{}
	if s := strings.TrimSpace(q.Title); s != "" {
		v.Set("title", s)
	}
	if s := strings.TrimSpace(q.Place); s != "" {
		v.Set("place", s)
	}
	if len(q.Tags) > 0 {
		tags := make([]string, len(q.Tags))
		for i, t := range q.Tags {
			tags[i] = string(t)
		}
		v.Set("tags", strings.Join(tags, ","))
	}
	if q.Organizer != "" {
		v.Set("organizer", q.Organizer.String())
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) GetEvent(ctx context.Context, token string, id models.ID) (*models.Event, error) {
	var out models.Event
	if err := c.doGet(ctx, token, "/events/"+url.PathEscape(id.String()), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateEvent(ctx context.Context, token string, in models.EventInput) (*models.Event, error) {
	var out models.Event
	if err := c.doSend(ctx, http.MethodPost, token, "/events", models.ContentLDJSON, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEvent sends patch as a JSON merge patch.
func (c *Client) UpdateEvent(ctx context.Context, token string, id models.ID, patch any) (*models.Event, error) {
	var out models.Event
	path := "/events/" + url.PathEscape(id.String())
	if err := c.doSend(ctx, http.MethodPatch, token, path, models.ContentMergePatch, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetEventStatus publishes or unpublishes an event.
func (c *Client) SetEventStatus(ctx context.Context, token string, id models.ID, status string) (*models.Event, error) {
	return c.UpdateEvent(ctx, token, id, map[string]string{"status": status})
}

func (c *Client) CancelEvent(ctx context.Context, token string, id models.ID) (*models.Event, error) {
	var out models.Event
	path := "/events/" + url.PathEscape(id.String()) + "/cancel"
	if err := c.doSend(ctx, http.MethodPost, token, path, models.ContentJSON, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
