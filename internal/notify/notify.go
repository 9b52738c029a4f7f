// Package notify posts short messages to a chat webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pbaille/cfaprep/internal/config"
)

// Notifier sends a message to the team chat
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Webhook posts to a Slack or Discord incoming webhook
type Webhook struct {
	url    string
	flavor string
	client *http.Client
}

// New returns a Webhook, or a no-op notifier when no URL is configured
func New(settings config.NotifySettings, client *http.Client) Notifier {
	if settings.WebhookURL == "" {
		return Nop{}
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	flavor := settings.Flavor
	if flavor == "" {
		flavor = config.WebhookSlack
	}
	return &Webhook{url: settings.WebhookURL, flavor: flavor, client: client}
}

// Notify posts message; any non-2xx answer is an error
func (w *Webhook) Notify(ctx context.Context, message string) error {
	var payload any
	switch w.flavor {
	case config.WebhookDiscord:
		payload = map[string]string{"content": message}
	default:
		payload = map[string]string{"text": message}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook error (status %d): %s", resp.StatusCode, string(msg))
	}
	return nil
}

// Nop drops messages
type Nop struct{}

// Notify does nothing
func (Nop) Notify(context.Context, string) error { return nil }
