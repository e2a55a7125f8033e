package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-sync/internal/model"
)

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/v1/notifications", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]model.Notification{{ID: "n1", Title: "hello"}})
	}))
	defer ts.Close()

	c := NewClient(ts.URL+"/api/v1/", "secret-token")
	items, err := c.ListNotifications(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	require.Len(t, items, 1)
	assert.Equal(t, "n1", items[0].ID)
}

func TestClient_NullListIsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	}))
	defer ts.Close()

	items, err := NewClient(ts.URL, "t").ListNotifications(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClient_MarkReadEscapesID(t *testing.T) {
	var gotPath, gotMethod string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	err := NewClient(ts.URL, "t").MarkRead(context.Background(), "a/b")

	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/notification/a%2Fb/read", gotPath)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantAuth bool
		wantCode int
		wantBody string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"invalid token"}`, wantAuth: true},
		{name: "not found", status: http.StatusNotFound, body: `{"error":"notification not found"}`, wantCode: 404, wantBody: "notification not found"},
		{name: "plain text", status: http.StatusBadGateway, body: "upstream down\n", wantCode: 502, wantBody: "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := NewClient(ts.URL, "t").UnreadCount(context.Background())
			require.Error(t, err)

			if tt.wantAuth {
				assert.True(t, IsAuthError(err))
				return
			}
			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.wantCode, statusErr.StatusCode)
			assert.Equal(t, tt.wantBody, statusErr.Body)
		})
	}
}

func TestClient_RetriesRateLimited(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(CountResponse{Count: 4})
	}))
	defer ts.Close()

	count, err := NewClient(ts.URL, "t").UnreadCount(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_RetriesExhausted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, "t", WithMaxRetries(1)).UnreadCount(context.Background())

	assert.ErrorContains(t, err, "max retries (1) exceeded")
}

func TestClient_MutationNotRetriedOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "t")

	tests := []struct {
		name   string
		mutate func() error
	}{
		{"mark read", func() error { return c.MarkRead(context.Background(), "n1") }},
		{"mark all read", func() error { return c.MarkAllRead(context.Background()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls.Store(0)
			err := tt.mutate()

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var hadAuth bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		_ = json.NewEncoder(w).Encode(TokenResponse{Token: "minted"})
	}))
	defer ts.Close()

	token, err := NewClient(ts.URL, "").IssueToken(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, "minted", token)
	assert.False(t, hadAuth)
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, time.Second, retryAfterDuration(resp, 0))
	assert.Equal(t, 4*time.Second, retryAfterDuration(resp, 2))
	assert.Equal(t, 30*time.Second, retryAfterDuration(resp, 10))

	resp.Header.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, retryAfterDuration(resp, 0))

	resp.Header.Set("Retry-After", "3600")
	assert.Equal(t, 30*time.Second, retryAfterDuration(resp, 0))
}
