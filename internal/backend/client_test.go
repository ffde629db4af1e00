package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/models"
)

type recorded struct {
	method      string
	path        string
	query       string
	auth        string
	accept      string
	contentType string
	body        []byte
}

func newTestClient(t *testing.T, status int, response string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.auth = r.Header.Get("Authorization")
		rec.accept = r.Header.Get("Accept")
		rec.contentType = r.Header.Get("Content-Type")
		rec.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", models.ContentLDJSON)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second, nil), rec
}

func TestClient_Headers(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `{"id":3,"title":"Gig"}`)

	event, err := c.GetEvent(context.Background(), "tok", "3")
	require.NoError(t, err)
	assert.Equal(t, "Gig", event.Title)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/events/3", rec.path)
	assert.Equal(t, "Bearer tok", rec.auth)
	assert.Equal(t, models.ContentLDJSON, rec.accept)
	assert.Empty(t, rec.contentType)
}

func TestClient_AnonymousHasNoAuthorization(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `{"hydra:member":[],"hydra:totalItems":0}`)

	_, err := c.SearchEvents(context.Background(), "", models.EventQuery{})
	require.NoError(t, err)
	assert.Empty(t, rec.auth)
	assert.Empty(t, rec.query)
}

func TestClient_SearchEvents(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `{
		"hydra:member":[
			{"@id":"/events/1","id":1,"title":"A","lat":1.5,"long":2.5,"price":0},
			{"@id":"/events/2","id":2,"title":"B","price":1500}
		],
		"hydra:totalItems":2}`)

	res, err := c.SearchEvents(context.Background(), "", models.EventQuery{
		Title: " jazz ",
		Place: "Paris",
		Tags:  []models.Tag{models.TagMusic, models.TagArt},
	})
	require.NoError(t, err)
	require.Len(t, res.Members, 2)
	assert.Equal(t, 2, res.TotalItems)
	assert.Equal(t, 1.5, res.Members[0].Lat)
	assert.Equal(t, "place=Paris&tags=music%2Cart&title=jazz", rec.query)
}

func TestClient_ContentTypes(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateUsesLDJSON", func(t *testing.T) {
		c, rec := newTestClient(t, http.StatusCreated, `{"id":9,"units":2,"status":"confirmed"}`)
		b, err := c.CreateBooking(ctx, "tok", models.BookingInput{Units: 2, Event: "/events/4"})
		require.NoError(t, err)
		assert.Equal(t, models.ID("9"), b.ID)
		assert.Equal(t, models.ContentLDJSON, rec.contentType)
		assert.JSONEq(t, `{"units":2,"event":"/events/4"}`, string(rec.body))
	})

	t.Run("PatchUsesMergePatch", func(t *testing.T) {
		c, rec := newTestClient(t, http.StatusOK, `{"id":4,"lastName":"Byron"}`)
		u, err := c.UpdateUser(ctx, "tok", "4", map[string]string{"lastName": "Byron"})
		require.NoError(t, err)
		assert.Equal(t, "Byron", u.LastName)
		assert.Equal(t, http.MethodPatch, rec.method)
		assert.Equal(t, "/users/4", rec.path)
		assert.Equal(t, models.ContentMergePatch, rec.contentType)
		assert.JSONEq(t, `{"lastName":"Byron"}`, string(rec.body))
	})

	t.Run("StatusChange", func(t *testing.T) {
		c, rec := newTestClient(t, http.StatusOK, `{"id":4,"status":"published"}`)
		e, err := c.SetEventStatus(ctx, "tok", "4", models.EventPublished)
		require.NoError(t, err)
		assert.Equal(t, models.EventPublished, e.Status)
		assert.JSONEq(t, `{"status":"published"}`, string(rec.body))
	})

	t.Run("CancelHasNoBody", func(t *testing.T) {
		c, rec := newTestClient(t, http.StatusOK, `{"id":5,"status":"cancelled"}`)
		b, err := c.CancelBooking(ctx, "tok", "5")
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, b.Status)
		assert.Equal(t, "/bookings/5/cancel", rec.path)
		assert.Empty(t, rec.body)
		assert.Empty(t, rec.contentType)
	})

	t.Run("Resolve", func(t *testing.T) {
		c, rec := newTestClient(t, http.StatusOK, `{"id":6,"status":"resolved","action":"cancel_event"}`)
		r, err := c.ResolveReport(ctx, "tok", "6", models.ResolveCancelEvent)
		require.NoError(t, err)
		assert.False(t, r.Pending())
		assert.Equal(t, "/reports/6/resolve", rec.path)
		assert.JSONEq(t, `{"action":"cancel_event"}`, string(rec.body))
	})
}

func TestClient_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		c, rec := newTestClient(t, http.StatusOK, `{"token":"abc.def.ghi"}`)
		token, err := c.Login(ctx, models.Credentials{Email: "a@b.co", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "abc.def.ghi", token)
		assert.Equal(t, "/auth", rec.path)
		assert.Equal(t, models.ContentJSON, rec.contentType)
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		c, _ := newTestClient(t, http.StatusUnprocessableEntity, `{"message":"Invalid credentials"}`)
		_, err := c.Login(ctx, models.Credentials{Email: "a@b.co", Password: "wrong"})
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
		assert.Equal(t, "Invalid credentials", Message(err, "Login failed"))
	})

	t.Run("MissingToken", func(t *testing.T) {
		c, _ := newTestClient(t, http.StatusOK, `{}`)
		_, err := c.Login(ctx, models.Credentials{})
		assert.ErrorIs(t, err, ErrNoToken)
	})
}

func TestClient_Register(t *testing.T) {
	c, rec := newTestClient(t, http.StatusCreated, `{"id":1}`)
	require.NoError(t, c.Register(context.Background(), models.Credentials{Email: "o@b.co", Password: "longenough"}, true))
	assert.Equal(t, "/auth/register/organizer", rec.path)

	require.NoError(t, c.Register(context.Background(), models.Credentials{Email: "u@b.co", Password: "longenough"}, false))
	assert.Equal(t, "/auth/register", rec.path)
}

func TestClient_ResetPassword(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `{"message":"ok"}`)
	require.NoError(t, c.ResetPassword(context.Background(), "12", "xyz", "newpassword"))
	assert.Equal(t, "/auth/reset-password", rec.path)
	assert.Equal(t, "code=xyz&userId=12", rec.query)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.body, &body))
	assert.Equal(t, "newpassword", body["password"])
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"Event is sold out"}`, "Event is sold out"},
		{"hydra", `{"hydra:description":"units: must be positive"}`, "units: must be positive"},
		{"detail", `{"detail":"Access denied"}`, "Access denied"},
		{"empty object", `{}`, DefaultErrorMessage},
		{"not json", `<html>oops</html>`, DefaultErrorMessage},
		{"empty", ``, DefaultErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.StatusBadRequest, tt.body)
			_, err := c.ListBookings(context.Background(), "tok")
			require.Error(t, err)
			assert.Equal(t, tt.want, Message(err, "fallback"))
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	notFound := &APIError{Status: http.StatusNotFound, Message: "Not Found"}
	forbidden := &APIError{Status: http.StatusForbidden, Message: "Access Denied."}

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsUnauthorized(forbidden))
	assert.True(t, IsUnauthorized(&APIError{Status: http.StatusUnauthorized}))
	assert.False(t, IsUnauthorized(notFound))
	assert.Equal(t, "fallback", Message(errors.New("dial tcp: refused"), "fallback"))
	assert.Contains(t, notFound.Error(), "404")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, 50*time.Millisecond, nil)
	_, err := c.GetEvent(context.Background(), "", "1")
	require.Error(t, err)
	assert.Equal(t, "fallback", Message(err, "fallback"))
}

func TestClient_RetriesReadsOnGatewayErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"id":3,"title":"Gig"}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Second, nil).WithRetry(RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond})
	event, err := c.GetEvent(context.Background(), "", "3")
	require.NoError(t, err)
	assert.Equal(t, "Gig", event.Title)
	assert.Equal(t, 3, calls)
}

func TestClient_DoesNotRetryClientErrorsOrWrites(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Second, nil).WithRetry(RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond})

	_, err := c.GetEvent(context.Background(), "", "3")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, 1, calls)

	_, err = c.CreateBooking(context.Background(), "tok", models.BookingInput{Units: 1, Event: "/events/3"})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicy_NextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 5*time.Second, policy.NextDelay(5))
	assert.Equal(t, 200*time.Millisecond, RetryPolicy{}.NextDelay(0))
}
