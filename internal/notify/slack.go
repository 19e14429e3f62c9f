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

// SlackMessage represents a Slack message payload
type SlackMessage struct {
	Channel   string       `json:"channel,omitempty"`
	Username  string       `json:"username,omitempty"`
	IconEmoji string       `json:"icon_emoji,omitempty"`
	Text      string       `json:"text"`
	Blocks    []SlackBlock `json:"blocks,omitempty"`
}

// SlackBlock represents a Slack block element
type SlackBlock struct {
	Type string     `json:"type"`
	Text *SlackText `json:"text,omitempty"`
}

// SlackText represents text in a Slack block
type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Slack posts notifications to a Slack incoming webhook
type Slack struct {
	client     *http.Client
	webhookURL string
	channel    string
	username   string
	iconEmoji  string
}

// NewSlack creates a Slack transport from configuration
func NewSlack(cfg models.Slack) (*Slack, error) {
	if cfg.WebhookURL == "" {
		return nil, errors.New(errors.ErrCodeTransportConfig, "notifier.slack.webhook_url is required for the slack transport").
			WithContext("transport", TransportSlack)
	}

	s := &Slack{
		client:     &http.Client{Timeout: 30 * time.Second},
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		username:   cfg.Username,
		iconEmoji:  cfg.IconEmoji,
	}
	if s.username == "" {
		s.username = "Git notifier"
	}
	if s.iconEmoji == "" {
		s.iconEmoji = ":bell:"
	}
	return s, nil
}

// Name returns the transport name
func (s *Slack) Name() string {
	return TransportSlack
}

// Send posts one notification
func (s *Slack) Send(ctx context.Context, n Notification) error {
	return s.sendSlackMessage(ctx, s.convertToSlackMessage(n))
}

// convertToSlackMessage renders the subject as a link to the commit
func (s *Slack) convertToSlackMessage(n Notification) SlackMessage {
	return SlackMessage{
		Channel:   s.channel,
		Username:  s.username,
		IconEmoji: s.iconEmoji,
		Text:      fmt.Sprintf("%s: %s", n.Title, n.Message),
		Blocks: []SlackBlock{
			{
				Type: "section",
				Text: &SlackText{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*%s*\n<%s|%s>", n.Title, n.URL, n.Message),
				},
			},
		},
	}
}

func (s *Slack) sendSlackMessage(ctx context.Context, message SlackMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.TransportError(TransportSlack, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.TransportError(TransportSlack, fmt.Errorf("Slack API returned status %d", resp.StatusCode))
	}

	return nil
}
