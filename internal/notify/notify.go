// Package notify delivers commit notifications through pluggable transports.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gitnotifier/pkg/errors"
	"gitnotifier/pkg/models"
)

// Transport names accepted in notifier.transports
const (
	TransportDesktop = "desktop"
	TransportWebhook = "webhook"
	TransportSlack   = "slack"
	TransportConsole = "console"
)

// Notification is one commit announcement
type Notification struct {
	// Title identifies the repository
	Title string
	// Message is the commit subject
	Message string
	// URL is the commit permalink
	URL       string
	Timestamp time.Time
}

// Body is the plain-text body: subject followed by the permalink
func (n Notification) Body() string {
	return n.Message + "\n" + n.URL
}

// Transport delivers notifications to one destination
type Transport interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Options carries dependencies for building transports
type Options struct {
	// Console is where the console transport writes; defaults to stderr
	Console io.Writer
	// Desktop overrides the D-Bus connection used by the desktop transport
	Desktop *Desktop
}

// Build constructs the transports named in cfg, in order. Unknown names and
// transports missing required settings are configuration errors.
func Build(cfg models.Notifier, opts Options) ([]Transport, error) {
	names := cfg.Transports
	if len(names) == 0 {
		names = []string{TransportDesktop}
	}

	seen := make(map[string]bool, len(names))
	transports := make([]Transport, 0, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		t, err := build(name, cfg, opts)
		if err != nil {
			closeAll(transports)
			return nil, err
		}
		transports = append(transports, t)
	}

	return transports, nil
}

func build(name string, cfg models.Notifier, opts Options) (Transport, error) {
	switch name {
	case TransportDesktop:
		if opts.Desktop != nil {
			return opts.Desktop, nil
		}
		return NewDesktop()
	case TransportWebhook:
		return NewWebhook(cfg.Webhook)
	case TransportSlack:
		return NewSlack(cfg.Slack)
	case TransportConsole:
		w := opts.Console
		if w == nil {
			w = os.Stderr
		}
		return NewConsole(w), nil
	default:
		return nil, errors.New(errors.ErrCodeTransportConfig, fmt.Sprintf("Unknown notification transport %q", name)).
			WithContext("transport", name).
			WithSuggestions("Use one of: desktop, webhook, slack, console")
	}
}

// Close releases resources held by transports that have any
func Close(transports []Transport) {
	closeAll(transports)
}

func closeAll(transports []Transport) {
	for _, t := range transports {
		if c, ok := t.(io.Closer); ok {
			_ = c.Close()
		}
	}
}
