package testutil

import (
	"time"

	"gitnotifier/pkg/models"
)

// TestConfig returns a valid configuration watching one repository
func TestConfig() *models.Config {
	return &models.Config{
		Repositories: []models.Repository{
			TestRepository(),
		},
		HistoryDepth:   50,
		PollInterval:   150 * time.Second,
		ThrottleWindow: 5 * time.Second,
		ThrottleBudget: 5,
		Backend:        "git",
		Notifier: models.Notifier{
			Transports: []string{"console"},
		},
		Log: models.Log{Level: "info", Format: "console"},
	}
}

// TestRepository returns a sample repository descriptor
func TestRepository() models.Repository {
	return models.Repository{
		URL:           "https://github.com/test/repo",
		CommitSubpath: "/commit/",
		Branch:        "main",
	}
}
