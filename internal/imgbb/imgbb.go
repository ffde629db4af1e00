// Package imgbb uploads event thumbnails to the imgbb image host.
package imgbb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"pulse/internal/metrics"
)

// ErrNoAPIKey is returned when no key is configured.
var ErrNoAPIKey = errors.New("IMGBB API key is not defined")

// HostError is a rejection reported by the image host itself.
type HostError struct {
	Status  int
	Message string
}

func (e *HostError) Error() string { return e.Message }

// Message returns the text worth showing a user for err: the host's own
// message, the missing key notice, or fallback.
func Message(err error, fallback string) string {
	var hostErr *HostError
	if errors.As(err, &hostErr) && hostErr.Message != "" {
		return hostErr.Message
	}
	if errors.Is(err, ErrNoAPIKey) {
		return ErrNoAPIKey.Error()
	}
	return fallback
}

// Uploader posts images as multipart form data and returns the hosted URL.
type Uploader struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewUploader(endpoint, apiKey string, timeout time.Duration, logger *zerolog.Logger) *Uploader {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "imgbb").Logger()
	return &Uploader{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     &l,
	}
}

type uploadResponse struct {
	Data *struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the image and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, filename string, image io.Reader) (string, error) {
	if u.apiKey == "" {
		return "", ErrNoAPIKey
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("key", u.apiKey); err != nil {
		return "", err
	}
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		metrics.IncBackend("UPLOAD", "transport_error")
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.IncBackend("UPLOAD", "http_error")
		return "", fmt.Errorf("decode upload response (status %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		metrics.IncBackend("UPLOAD", "http_error")
		u.logger.Warn().Int("status", resp.StatusCode).Str("message", out.Error.Message).Msg("image upload rejected")
		return "", &HostError{Status: resp.StatusCode, Message: out.Error.Message}
	}
	if out.Data == nil || out.Data.URL == "" {
		metrics.IncBackend("UPLOAD", "http_error")
		return "", fmt.Errorf("upload image: no url in response (status %d)", resp.StatusCode)
	}

	metrics.IncBackend("UPLOAD", "ok")
	u.logger.Debug().Str("url", out.Data.URL).Msg("image uploaded")
	return out.Data.URL, nil
}
