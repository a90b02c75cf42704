package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.Notify(context.Background(), "anything"))
}

func TestWebhook_PostsContent(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	w := NewWebhook(WebhookConfig{URL: server.URL, Username: "curfew"}, nil)
	require.NoError(t, w.Notify(context.Background(), "Starting server"))

	assert.Equal(t, "Starting server", got.Content)
	assert.Equal(t, "curfew", got.Username)
}

func TestWebhook_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	w := NewWebhook(WebhookConfig{URL: server.URL}, nil)
	err := w.Notify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.False(t, IsSkipped(err))
}

func TestWebhook_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	w := NewWebhook(WebhookConfig{
		URL:              server.URL,
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
	}, nil)

	assert.Error(t, w.Notify(context.Background(), "one"))
	assert.Error(t, w.Notify(context.Background(), "two"))
	assert.Equal(t, "open", w.State())

	err := w.Notify(context.Background(), "three")
	assert.True(t, IsSkipped(err))
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestWebhook_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	w := NewWebhook(WebhookConfig{URL: server.URL, Timeout: 50 * time.Millisecond}, nil)

	start := time.Now()
	assert.Error(t, w.Notify(context.Background(), "slow"))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWebhook_UnreachableEndpoint(t *testing.T) {
	w := NewWebhook(WebhookConfig{URL: "http://127.0.0.1:1/hook", Timeout: time.Second}, nil)
	assert.Error(t, w.Notify(context.Background(), "hello"))
}
