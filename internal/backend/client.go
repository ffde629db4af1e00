// Package backend is the HTTP client for the platform API that owns events,
// bookings, users and reports.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pulse/internal/metrics"
	"pulse/internal/models"
)

// DefaultErrorMessage is shown when a failed response carries no message.
const DefaultErrorMessage = "Request failed"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
}

// Message returns the text to show the user for err: the backend message
// for API errors and fallback otherwise.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool { return IsStatus(err, http.StatusNotFound) }

// IsUnauthorized reports a 401: the backend no longer accepts the token.
func IsUnauthorized(err error) bool { return IsStatus(err, http.StatusUnauthorized) }

// Client calls the backend. Every call is made with the caller's bearer
// token; an empty token sends an anonymous request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *zerolog.Logger
}

// NewClient constructs a client for baseURL. timeout bounds every call.
func NewClient(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "backend").Logger()
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     &l,
	}
}

// WithRetry makes reads retry per p. Writes are never repeated.
func (c *Client) WithRetry(p RetryPolicy) *Client {
	c.retry = p
	return c
}

func (c *Client) doGet(ctx context.Context, token, path string, out any) error {
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}
		c.addHeaders(req, token)
		err = c.do(req, out)
		if attempt > c.retry.MaxRetries || !retryable(ctx, err) {
			return err
		}

		delay := c.retry.NextDelay(attempt)
		c.logger.Debug().Err(err).Str("path", path).Int("attempt", attempt).Dur("delay", delay).Msg("retrying backend read")
		if !wait(ctx, delay) {
			return err
		}
	}
}

// doSend issues a request with a JSON body. contentType selects between
// plain JSON, JSON-LD and merge-patch.
func (c *Client) doSend(ctx context.Context, method, token, path, contentType string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	c.addHeaders(req, token)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncBackend(req.Method, "transport_error")
		c.logger.Warn().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("backend request failed")
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.IncBackend(req.Method, "http_error")
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	metrics.IncBackend(req.Method, "ok")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", models.ContentLDJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// errorMessage picks message, then hydra:description, then detail.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return DefaultErrorMessage
	}
	var payload struct {
		Message     string `json:"message"`
		Description string `json:"hydra:description"`
		Detail      string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return DefaultErrorMessage
	}
	for _, m := range []string{payload.Message, payload.Description, payload.Detail} {
		if strings.TrimSpace(m) != "" {
			return m
		}
	}
	return DefaultErrorMessage
}
