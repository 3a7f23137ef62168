package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// WebhookSettings contains webhook-specific configuration.
type WebhookSettings struct {
	URL     string            `json:"url" mapstructure:"url"`
	Method  string            `json:"method,omitempty" mapstructure:"method"`
	Headers map[string]string `json:"headers,omitempty" mapstructure:"headers"`
}

// Webhook posts notification events to a custom endpoint.
type Webhook struct {
	settings   WebhookSettings
	httpClient *http.Client
	logger     zerolog.Logger
}

// webhookPayload is the JSON body sent to the endpoint.
type webhookPayload struct {
	EventType    string    `json:"eventType"`
	InstanceName string    `json:"instanceName"`
	Timestamp    time.Time `json:"timestamp"`
	Payload      any       `json:"payload,omitempty"`
}

// NewWebhook creates a webhook notifier.
func NewWebhook(settings WebhookSettings, httpClient *http.Client, logger zerolog.Logger) *Webhook {
	if settings.Method == "" {
		settings.Method = http.MethodPost
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{
		settings:   settings,
		httpClient: httpClient,
		logger:     logger.With().Str("notifier", "webhook").Logger(),
	}
}

// Notify implements Notifier.
func (w *Webhook) Notify(ctx context.Context, kind EventKind, payload any) error {
	body, err := json.Marshal(webhookPayload{
		EventType:    string(kind),
		InstanceName: "SubWatch",
		Timestamp:    time.Now().UTC(),
		Payload:      payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, w.settings.Method, w.settings.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.settings.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	w.logger.Debug().Str("event", string(kind)).Msg("Webhook delivered")
	return nil
}
