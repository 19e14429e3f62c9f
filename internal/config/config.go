package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"gitnotifier/internal/common"
	"gitnotifier/internal/git"
	apperrors "gitnotifier/pkg/errors"
	"gitnotifier/pkg/models"
)

const (
	// EnvPrefix prefixes every environment override, e.g. GITNOTIFIER_POLL_INTERVAL.
	EnvPrefix = "GITNOTIFIER"
	// EnvConfigFile points at an explicit config file.
	EnvConfigFile = "GITNOTIFIER_CONFIG"

	localConfigFile = "gitnotifier.yaml"
)

// Defaults
const (
	DefaultHistoryDepth   = 50
	DefaultPollInterval   = 150 * time.Second
	DefaultThrottleWindow = 5 * time.Second
	DefaultThrottleBudget = 5
	DefaultBackend        = git.BackendCLI
)

// GetConfigPath returns the per-user config directory
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gitnotifier")
}

// GetConfigFile resolves the config file to use: $GITNOTIFIER_CONFIG, then
// ./gitnotifier.yaml when present, then ~/.gitnotifier/config.yaml.
func GetConfigFile() string {
	if configFile := os.Getenv(EnvConfigFile); configFile != "" {
		cleaned, err := common.CleanPath(configFile)
		if err == nil {
			return cleaned
		}
	}

	if _, err := os.Stat(localConfigFile); err == nil {
		if abs, err := filepath.Abs(localConfigFile); err == nil {
			return abs
		}
	}

	return filepath.Join(GetConfigPath(), "config.yaml")
}

// Defaults returns a configuration holding only default values
func Defaults() *models.Config {
	return &models.Config{
		HistoryDepth:   DefaultHistoryDepth,
		PollInterval:   DefaultPollInterval,
		ThrottleWindow: DefaultThrottleWindow,
		ThrottleBudget: DefaultThrottleBudget,
		Backend:        DefaultBackend,
		Notifier: models.Notifier{
			Transports: []string{"desktop"},
			Webhook: models.Webhook{
				Method:     "POST",
				Timeout:    30 * time.Second,
				RetryCount: 3,
			},
		},
		Log: models.Log{Level: "info", Format: "console"},
	}
}

// SetDefaults registers the default values with v
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("history_depth", d.HistoryDepth)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("throttle_window", d.ThrottleWindow)
	v.SetDefault("throttle_budget", d.ThrottleBudget)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("git_timeout", time.Duration(0))
	v.SetDefault("keep_going", false)
	v.SetDefault("notifier.transports", d.Notifier.Transports)
	v.SetDefault("notifier.webhook.method", d.Notifier.Webhook.Method)
	v.SetDefault("notifier.webhook.timeout", d.Notifier.Webhook.Timeout)
	v.SetDefault("notifier.webhook.retry_count", d.Notifier.Webhook.RetryCount)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// NewViper returns a viper instance wired with defaults, the environment and
// the given config file. A missing file is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = GetConfigFile()
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(configFile); os.IsNotExist(statErr) {
			return v, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeMalformedConfig,
			fmt.Sprintf("Failed to read config file %s", configFile)).
			WithContext("field", "config")
	}

	return v, nil
}

// Load decodes the merged configuration held by v
func Load(v *viper.Viper) (*models.Config, error) {
	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeMalformedConfig, "Failed to decode configuration").
			WithContext("field", "config")
	}
	return &cfg, nil
}

// ParseRepoDescriptors decodes the JSON repository descriptors given on the
// command line, e.g. {"url":"https://github.com/a/b","commit_subpath":"/commit/","branch":"main"}.
func ParseRepoDescriptors(descriptors []string) ([]models.Repository, error) {
	repos := make([]models.Repository, 0, len(descriptors))

	for i, raw := range descriptors {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.DisallowUnknownFields()

		var repo models.Repository
		if err := dec.Decode(&repo); err != nil {
			return nil, apperrors.ConfigError(
				fmt.Sprintf("Repository descriptor %d is not valid JSON: %v", i, err), "repos").
				WithContext("descriptor", raw)
		}
		if err := dec.Decode(&json.RawMessage{}); err != io.EOF {
			return nil, apperrors.ConfigError(
				fmt.Sprintf("Repository descriptor %d has trailing data", i), "repos").
				WithContext("descriptor", raw)
		}

		repos = append(repos, repo)
	}

	return repos, nil
}

// NewValidator returns a validator that knows the gitremote tag
func NewValidator() (*validator.Validate, error) {
	v := validator.New()
	err := v.RegisterValidation("gitremote", func(fl validator.FieldLevel) bool {
		return git.ValidateGitURL(fl.Field().String()) == nil
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to register the gitremote validation")
	}
	return v, nil
}

// Validate checks cfg and returns a MalformedConfigError naming the first bad field
func Validate(cfg *models.Config) error {
	v, err := NewValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if apperrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperrors.ConfigError(
				fmt.Sprintf("Invalid configuration: %s fails '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value()),
				fe.Namespace()).
				WithContext("errors", len(fieldErrs))
		}
		return apperrors.ConfigError(fmt.Sprintf("Invalid configuration: %v", err), "config")
	}

	if len(cfg.Repositories) == 0 {
		return apperrors.ConfigError("No repositories configured", "repositories").
			WithSuggestions("Add one with 'gitnotifier repo add' or pass --repos '{\"url\":...}'")
	}

	return nil
}

// ReadFile loads a YAML config file over the defaults without consulting the
// environment. Used by the commands that edit the file.
func ReadFile(path string) (*models.Config, error) {
	cfg := Defaults()

	cleaned, err := common.CleanPath(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeMalformedConfig, "Invalid config file path")
	}

	data, err := os.ReadFile(cleaned) // #nosec G304 - path is validated
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigNotFound,
				fmt.Sprintf("Config file %s does not exist", cleaned)).
				WithSuggestions("Run 'gitnotifier init' to create one")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeMalformedConfig, "Failed to read config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeMalformedConfig, "Failed to parse config file").
			WithContext("file", cleaned)
	}

	return cfg, nil
}

// Save writes cfg to path as YAML, creating the parent directory
func Save(path string, cfg *models.Config) error {
	cleaned, err := common.CleanPath(path)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConfigWrite, "Invalid config file path")
	}

	if err := os.MkdirAll(filepath.Dir(cleaned), common.DirPermissionSecure); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConfigWrite, "Failed to create config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConfigWrite, "Failed to marshal config")
	}

	if err := os.WriteFile(cleaned, data, common.FilePermissionSecure); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConfigWrite, "Failed to write config file").
			WithContext("file", cleaned)
	}

	return nil
}

// Exists reports whether path names an existing file
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
