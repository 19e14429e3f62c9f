package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitnotifier/internal/testutil"
	apperrors "gitnotifier/pkg/errors"
	"gitnotifier/pkg/models"
)

func TestGetConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvConfigFile, "")

	assert.Equal(t, filepath.Join(home, ".gitnotifier"), GetConfigPath())
	assert.Equal(t, filepath.Join(home, ".gitnotifier", "config.yaml"), GetConfigFile())

	explicit := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(EnvConfigFile, explicit)
	assert.Equal(t, explicit, GetConfigFile())
}

func TestNewViperDefaults(t *testing.T) {
	v, err := NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.HistoryDepth)
	assert.Equal(t, 150*time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.ThrottleWindow)
	assert.Equal(t, 5, cfg.ThrottleBudget)
	assert.Equal(t, "git", cfg.Backend)
	assert.Equal(t, []string{"desktop"}, cfg.Notifier.Transports)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Repositories)
}

func TestNewViperReadsFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitnotifier.yaml")
	doc := `
history_depth: 20
poll_interval: 1m
throttle_budget: 2
repositories:
  - name: core
    url: https://github.com/acme/core
    commit_subpath: /commit/
    branch: main
notifier:
  transports: [console, slack]
  slack:
    webhook_url: https://hooks.slack.com/services/T/B/X
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))
	t.Setenv("GITNOTIFIER_THROTTLE_WINDOW", "30s")

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.HistoryDepth)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.ThrottleWindow)
	assert.Equal(t, 2, cfg.ThrottleBudget)
	require.Len(t, cfg.Repositories, 1)
	assert.Equal(t, "core", cfg.Repositories[0].Name)
	assert.Equal(t, "/commit/", cfg.Repositories[0].CommitSubpath)
	assert.Equal(t, []string{"console", "slack"}, cfg.Notifier.Transports)
	assert.Equal(t, "https://hooks.slack.com/services/T/B/X", cfg.Notifier.Slack.WebhookURL)
	require.NoError(t, Validate(cfg))
}

func TestNewViperRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("repositories: [\n"), 0600))

	_, err := NewViper(path)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrMalformedConfig))
}

func TestParseRepoDescriptors(t *testing.T) {
	tests := []struct {
		name        string
		descriptors []string
		expected    []models.Repository
		expectError bool
	}{
		{
			name:        "none",
			descriptors: nil,
			expected:    []models.Repository{},
		},
		{
			name: "two descriptors in order",
			descriptors: []string{
				`{"url":"https://github.com/a/one","commit_subpath":"/commit/","branch":"main"}`,
				`{"name":"two","url":"git@gitlab.com:a/two.git","commit_subpath":"/-/commit/","branch":"dev"}`,
			},
			expected: []models.Repository{
				{URL: "https://github.com/a/one", CommitSubpath: "/commit/", Branch: "main"},
				{Name: "two", URL: "git@gitlab.com:a/two.git", CommitSubpath: "/-/commit/", Branch: "dev"},
			},
		},
		{
			name:        "not json",
			descriptors: []string{`url=https://github.com/a/b`},
			expectError: true,
		},
		{
			name:        "unknown field",
			descriptors: []string{`{"url":"https://github.com/a/b","commit_subpath":"/commit/","ref":"main"}`},
			expectError: true,
		},
		{
			name:        "trailing data",
			descriptors: []string{`{"url":"https://github.com/a/b"} {}`},
			expectError: true,
		},
		{
			name:        "trailing closing brace",
			descriptors: []string{`{"url":"https://github.com/a/b"}}`},
			expectError: true,
		},
		{
			name:        "trailing closing bracket",
			descriptors: []string{`{"url":"https://github.com/a/b"}]`},
			expectError: true,
		},
		{
			name:        "trailing whitespace",
			descriptors: []string{"{\"url\":\"https://github.com/a/b\"}\n  "},
			expected:    []models.Repository{{URL: "https://github.com/a/b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos, err := ParseRepoDescriptors(tt.descriptors)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.ErrMalformedConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, repos)
		})
	}
}

func TestNewValidatorKnowsGitRemote(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Var("https://github.com/a/b", "gitremote"))
	assert.NoError(t, v.Var("git@github.com:a/b.git", "gitremote"))
	assert.Error(t, v.Var("a/b", "gitremote"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *models.Config)
		field  string
	}{
		{"valid", func(cfg *models.Config) {}, ""},
		{"no repositories", func(cfg *models.Config) { cfg.Repositories = nil }, "repositories"},
		{"missing branch", func(cfg *models.Config) { cfg.Repositories[0].Branch = "" }, "Config.Repositories[0].Branch"},
		{"bad url", func(cfg *models.Config) { cfg.Repositories[0].URL = "not a url" }, "Config.Repositories[0].URL"},
		{"local path url", func(cfg *models.Config) { cfg.Repositories[0].URL = "/srv/git/repo.git" }, ""},
		{"zero depth", func(cfg *models.Config) { cfg.HistoryDepth = 0 }, "Config.HistoryDepth"},
		{"zero interval", func(cfg *models.Config) { cfg.PollInterval = 0 }, "Config.PollInterval"},
		{"negative budget", func(cfg *models.Config) { cfg.ThrottleBudget = -1 }, "Config.ThrottleBudget"},
		{"unknown backend", func(cfg *models.Config) { cfg.Backend = "svn" }, "Config.Backend"},
		{"unknown transport", func(cfg *models.Config) { cfg.Notifier.Transports = []string{"pager"} }, "Config.Notifier.Transports[0]"},
		{"bad log format", func(cfg *models.Config) { cfg.Log.Format = "xml" }, "Config.Log.Format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testutil.TestConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var appErr *apperrors.AppError
			require.True(t, apperrors.As(err, &appErr))
			assert.Equal(t, apperrors.ErrCodeMalformedConfig, appErr.Code)
			assert.Equal(t, tt.field, appErr.Context["field"])
		})
	}
}

func TestSaveAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := testutil.TestConfig()
	cfg.Repositories = append(cfg.Repositories, models.Repository{
		Name: "tools", URL: "https://gitlab.com/acme/tools", CommitSubpath: "/-/commit/", Branch: "develop",
	})
	cfg.PollInterval = 2 * time.Minute

	require.NoError(t, Save(path, cfg))
	assert.True(t, Exists(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "poll_interval: 2m0s")

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Repositories, loaded.Repositories)
	assert.Equal(t, 2*time.Minute, loaded.PollInterval)
	assert.Equal(t, cfg.ThrottleBudget, loaded.ThrottleBudget)
}

func TestReadFileAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("throttle_budget: 9\n"), 0600))

	cfg, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.ThrottleBudget)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultHistoryDepth, cfg.HistoryDepth)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfigNotFound, apperrors.GetErrorCode(err))
	assert.False(t, Exists(filepath.Join(t.TempDir(), "absent.yaml")))
}
