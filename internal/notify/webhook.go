package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gitnotifier/pkg/errors"
	"gitnotifier/pkg/models"
)

// WebhookPayload is the JSON document posted for every notification
type WebhookPayload struct {
	Event      string    `json:"event"`
	Timestamp  time.Time `json:"timestamp"`
	Repository string    `json:"repository"`
	Message    string    `json:"message"`
	URL        string    `json:"url"`
}

// Webhook posts notifications as JSON to an HTTP endpoint
type Webhook struct {
	client     *http.Client
	url        string
	method     string
	headers    map[string]string
	retryCount int
	retryDelay time.Duration
}

// NewWebhook creates a webhook transport from configuration
func NewWebhook(cfg models.Webhook) (*Webhook, error) {
	if cfg.URL == "" {
		return nil, errors.New(errors.ErrCodeTransportConfig, "notifier.webhook.url is required for the webhook transport").
			WithContext("transport", TransportWebhook)
	}

	w := &Webhook{
		url:        cfg.URL,
		method:     http.MethodPost,
		headers:    make(map[string]string),
		retryCount: 3,
		retryDelay: time.Second,
	}

	if cfg.Method != "" {
		w.method = cfg.Method
	}
	for key, value := range cfg.Headers {
		w.headers[key] = value
	}
	if _, exists := w.headers["Content-Type"]; !exists {
		w.headers["Content-Type"] = "application/json"
	}
	if cfg.RetryCount > 0 {
		w.retryCount = cfg.RetryCount
	}

	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	w.client = &http.Client{Timeout: timeout}

	return w, nil
}

// Name returns the transport name
func (w *Webhook) Name() string {
	return TransportWebhook
}

// Send posts one notification, retrying server errors with backoff
func (w *Webhook) Send(ctx context.Context, n Notification) error {
	timestamp := n.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	body, err := json.Marshal(WebhookPayload{
		Event:      "commit",
		Timestamp:  timestamp,
		Repository: n.Title,
		Message:    n.Message,
		URL:        n.URL,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	retry := errors.DefaultRetryConfig()
	retry.MaxRetries = w.retryCount
	retry.InitialDelay = w.retryDelay

	err = errors.Retry(ctx, retry, func(ctx context.Context) error {
		return w.post(ctx, body)
	})
	if err != nil {
		return errors.TransportError(TransportWebhook, err)
	}
	return nil
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, w.method, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for key, value := range w.headers {
		req.Header.Set(key, value)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeTransport, "Webhook request failed").AsRecoverable()
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Client errors will not succeed on retry
		return errors.New(errors.ErrCodeTransportConfig, fmt.Sprintf("Webhook returned status %d", resp.StatusCode))
	default:
		return errors.New(errors.ErrCodeTransport, fmt.Sprintf("Webhook returned status %d", resp.StatusCode)).AsRecoverable()
	}
}
