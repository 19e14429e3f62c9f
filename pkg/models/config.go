package models

import "time"

// Config is the complete runtime configuration of the notifier
type Config struct {
	Repositories   []Repository  `yaml:"repositories" mapstructure:"repositories" validate:"dive"`
	HistoryDepth   int           `yaml:"history_depth" mapstructure:"history_depth" validate:"min=1"`
	PollInterval   time.Duration `yaml:"poll_interval" mapstructure:"poll_interval" validate:"gt=0"`
	ThrottleWindow time.Duration `yaml:"throttle_window" mapstructure:"throttle_window" validate:"gte=0"`
	ThrottleBudget int           `yaml:"throttle_budget" mapstructure:"throttle_budget" validate:"min=0"`
	Backend        string        `yaml:"backend" mapstructure:"backend" validate:"oneof=git go-git"`
	GitTimeout     time.Duration `yaml:"git_timeout" mapstructure:"git_timeout" validate:"gte=0"`
	Workspace      string        `yaml:"workspace" mapstructure:"workspace"`  // Parent dir for the per-run temp dir
	KeepGoing      bool          `yaml:"keep_going" mapstructure:"keep_going"` // Skip a failing repository instead of exiting
	MetricsAddr    string        `yaml:"metrics_addr" mapstructure:"metrics_addr"`
	SSH            SSH           `yaml:"ssh" mapstructure:"ssh"`
	Notifier       Notifier      `yaml:"notifier" mapstructure:"notifier"`
	Log            Log           `yaml:"log" mapstructure:"log"`
}

// Repository describes one watched repository
type Repository struct {
	Name          string `yaml:"name,omitempty" json:"name,omitempty" mapstructure:"name"`
	URL           string `yaml:"url" json:"url" mapstructure:"url" validate:"required,gitremote"`
	CommitSubpath string `yaml:"commit_subpath" json:"commit_subpath" mapstructure:"commit_subpath" validate:"required"`
	Branch        string `yaml:"branch" json:"branch" mapstructure:"branch" validate:"required"`
}

// Identifier is the name shown as notification title and in logs
func (r Repository) Identifier() string {
	if r.Name != "" {
		return r.Name
	}
	return r.URL
}

// Notifier selects and configures notification transports
type Notifier struct {
	Transports []string `yaml:"transports" mapstructure:"transports" validate:"dive,oneof=desktop webhook slack console"`
	Webhook    Webhook  `yaml:"webhook" mapstructure:"webhook"`
	Slack      Slack    `yaml:"slack" mapstructure:"slack"`
}

// Webhook configures the generic HTTP webhook transport
type Webhook struct {
	URL        string            `yaml:"url" mapstructure:"url"`
	Method     string            `yaml:"method" mapstructure:"method"`
	Headers    map[string]string `yaml:"headers" mapstructure:"headers"`
	Timeout    time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	RetryCount int               `yaml:"retry_count" mapstructure:"retry_count"`
}

// Slack configures the Slack incoming-webhook transport
type Slack struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	Channel    string `yaml:"channel" mapstructure:"channel"`
	Username   string `yaml:"username" mapstructure:"username"`
	IconEmoji  string `yaml:"icon_emoji" mapstructure:"icon_emoji"`
}

// SSH configures authentication for the go-git backend
type SSH struct {
	KeyPath             string `yaml:"key_path" mapstructure:"key_path"`
	KnownHosts          string `yaml:"known_hosts" mapstructure:"known_hosts"`
	InsecureSkipHostKey bool   `yaml:"insecure_skip_host_key" mapstructure:"insecure_skip_host_key"`
}

// Log configures process logging
type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=console json"`
}
