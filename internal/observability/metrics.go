package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll results used as the result label
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds the Prometheus collectors of the poll loop
type Metrics struct {
	registry *prometheus.Registry

	Polls                 *prometheus.CounterVec
	NewCommits            *prometheus.CounterVec
	Notifications         *prometheus.CounterVec
	ThrottledDeliveries   prometheus.Counter
	CycleDuration         prometheus.Histogram
	LastSuccessfulPoll    *prometheus.GaugeVec
	ThrottleBudgetRemains prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Polls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gitnotifier_polls_total",
				Help: "Repository polls by outcome",
			},
			[]string{"repository", "result"},
		),
		NewCommits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gitnotifier_new_commits_total",
				Help: "Commits detected since the previous poll",
			},
			[]string{"repository"},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gitnotifier_notifications_total",
				Help: "Notification deliveries by transport and outcome",
			},
			[]string{"transport", "result"},
		),
		ThrottledDeliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "gitnotifier_notifications_throttled_total",
			Help: "Commits reported on the console but not delivered because the budget was spent",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gitnotifier_cycle_duration_seconds",
			Help:    "Time spent polling every repository once",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		LastSuccessfulPoll: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gitnotifier_last_successful_poll_timestamp_seconds",
				Help: "Unix time of the last successful poll",
			},
			[]string{"repository"},
		),
		ThrottleBudgetRemains: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gitnotifier_throttle_budget_remaining",
			Help: "Deliveries left in the current throttle window",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
