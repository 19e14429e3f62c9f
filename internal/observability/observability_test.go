package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitnotifier/pkg/errors"
	"gitnotifier/pkg/models"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"  nonsense ", zerolog.InfoLevel},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, parseLevel(c.in), "parseLevel(%q)", c.in)
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Format: "json", Component: "poller", Writer: &buf})

	log.Debug().Str("repository", "r").Msg("Polled repository")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "poller", entry["component"])
	assert.Equal(t, "r", entry["repository"])
	assert.Equal(t, "Polled repository", entry["message"])
}

func TestNewConsoleLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Writer: &buf})

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromConfig(t *testing.T) {
	opt := FromConfig(models.Log{Level: "DEBUG", Format: "JSON"})
	assert.Equal(t, "debug", opt.Level)
	assert.Equal(t, "json", opt.Format)
}

func TestWithCycle(t *testing.T) {
	var buf bytes.Buffer
	log, id := WithCycle(New(Options{Format: "json", Writer: &buf}))

	log.Info().Msg("Cycle started")

	assert.Len(t, id, 36)
	assert.Contains(t, buf.String(), fmt.Sprintf(`"cycle_id":"%s"`, id))
}

func TestLogErrorIncludesAppErrorContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Format: "json", Writer: &buf})

	LogError(&log, errors.FetchError("repo-a", fmt.Errorf("timeout")), "Poll failed")

	out := buf.String()
	assert.Contains(t, out, `"code":"GNE1002"`)
	assert.Contains(t, out, `"repository":"repo-a"`)
	assert.Contains(t, out, `"operation":"fetch"`)
}

func TestGetAndNamed(t *testing.T) {
	require.NotNil(t, Get())
	require.NotNil(t, Named("cmd"))
	assert.Same(t, Get(), Named(""))
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.Polls.WithLabelValues("repo-a", ResultSuccess).Inc()
	m.Polls.WithLabelValues("repo-a", ResultSuccess).Inc()
	m.Polls.WithLabelValues("repo-a", ResultError).Inc()
	m.NewCommits.WithLabelValues("repo-a").Add(3)
	m.ThrottledDeliveries.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Polls.WithLabelValues("repo-a", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Polls.WithLabelValues("repo-a", ResultError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NewCommits.WithLabelValues("repo-a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ThrottledDeliveries))
}

func TestServerEndpoints(t *testing.T) {
	metrics := NewMetrics()
	metrics.NewCommits.WithLabelValues("repo-a").Add(2)

	health := NewHealthManager(time.Second)
	healthy := true
	health.RegisterCheck(CheckFunc{
		CheckName: "poller",
		Fn: func(ctx context.Context) HealthResult {
			if healthy {
				return HealthResult{Status: HealthStatusUp}
			}
			return HealthResult{Status: HealthStatusDown, Message: "no successful cycle"}
		},
	})

	srv := httptest.NewServer(NewServer(":0", metrics, health).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `gitnotifier_new_commits_total{repository="repo-a"} 2`)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	var report map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "UP", report["status"])

	healthy = false
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/livez")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer("127.0.0.1:0", NewMetrics(), NewHealthManager(time.Second))

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
