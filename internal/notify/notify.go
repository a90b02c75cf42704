// Package notify delivers human-facing status messages to an external chat
// channel. Delivery is best effort: callers may ignore returned errors.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Notifier sends a text message somewhere a human will read it.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop discards every message. Used when no webhook is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// WebhookConfig configures a Discord-compatible webhook.
type WebhookConfig struct {
	URL      string
	Username string
	Timeout  time.Duration

	// FailureThreshold consecutive failures open the breaker; it stays open
	// for OpenTimeout before a single probe is allowed through.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Webhook posts {"content": ...} messages to a webhook URL. A circuit
// breaker skips delivery entirely while the endpoint keeps failing, so an
// unreachable endpoint costs nothing after the first few attempts.
type Webhook struct {
	url      string
	username string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker[struct{}]
	log      *slog.Logger
}

type webhookPayload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

// NewWebhook creates a webhook notifier.
func NewWebhook(cfg WebhookConfig, log *slog.Logger) *Webhook {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	w := &Webhook{
		url:      cfg.URL,
		username: cfg.Username,
		client:   &http.Client{Timeout: cfg.Timeout},
		log:      log,
	}

	w.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "webhook",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			w.log.Info("notifier breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return w
}

// Notify posts text to the webhook. It returns gobreaker.ErrOpenState
// without sending while the breaker is open.
func (w *Webhook) Notify(ctx context.Context, text string) error {
	_, err := w.cb.Execute(func() (struct{}, error) {
		return struct{}{}, w.post(ctx, text)
	})
	return err
}

// State reports the breaker state ("closed", "half-open", "open").
func (w *Webhook) State() string {
	return w.cb.State().String()
}

func (w *Webhook) post(ctx context.Context, text string) error {
	body, err := json.Marshal(webhookPayload{Content: text, Username: w.username})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// IsSkipped reports whether err means the message was not attempted
// because the breaker is open.
func IsSkipped(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
