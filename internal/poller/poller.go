// Package poller runs the poll cycle: refresh every watched repository, report
// what is new and hand the commits to the notification transports under the
// throttle's budget.
package poller

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"gitnotifier/internal/git"
	"gitnotifier/internal/notify"
	"gitnotifier/internal/observability"
	"gitnotifier/internal/throttle"
	"gitnotifier/internal/ui"
	apperrors "gitnotifier/pkg/errors"
	"gitnotifier/pkg/models"
)

// PathProvider hands out fresh clone destinations
type PathProvider interface {
	NewPath() (string, error)
}

// Settings are the loop's scalar knobs
type Settings struct {
	HistoryDepth int
	PollInterval time.Duration
	KeepGoing    bool
}

// Poller owns the repositories and the throttle. It is driven by a single
// goroutine; only the health check reads from elsewhere.
type Poller struct {
	repos      []*git.Repository
	throttle   *throttle.Throttle
	transports []notify.Transport
	workspace  PathProvider
	settings   Settings

	out     io.Writer
	metrics *observability.Metrics
	logger  zerolog.Logger
	now     func() time.Time

	lastCycle atomic.Int64
}

// Option configures a Poller
type Option func(*Poller)

// WithTransports sets the notification transports
func WithTransports(transports ...notify.Transport) Option {
	return func(p *Poller) { p.transports = transports }
}

// WithOutput sets where commit reports are printed
func WithOutput(w io.Writer) Option {
	return func(p *Poller) { p.out = w }
}

// WithMetrics records poll and delivery metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

// New creates a poller over repos, visited in the given order
func New(repos []*git.Repository, th *throttle.Throttle, workspace PathProvider, settings Settings, opts ...Option) *Poller {
	p := &Poller{
		repos:     repos,
		throttle:  th,
		workspace: workspace,
		settings:  settings,
		out:       os.Stdout,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Repositories returns the watched repositories
func (p *Poller) Repositories() []*git.Repository {
	return p.repos
}

// Run polls until ctx is cancelled. Cancellation is a clean stop and returns
// nil; a repository failure ends the loop unless KeepGoing is set.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := p.RunCycle(ctx); err != nil {
			return err
		}

		timer := time.NewTimer(p.settings.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// RunCycle visits every repository once
func (p *Poller) RunCycle(ctx context.Context) error {
	log, _ := observability.WithCycle(p.logger)
	start := p.now()
	log.Debug().Int("repositories", len(p.repos)).Msg("poll cycle started")

	failures := 0
	for _, repo := range p.repos {
		if ctx.Err() != nil {
			log.Info().Msg("poll cycle interrupted")
			return nil
		}

		if err := p.pollRepository(ctx, log, repo); err != nil {
			p.recordPoll(repo, observability.ResultError)
			if !p.settings.KeepGoing {
				return err
			}
			failures++
			observability.LogError(&log, err, "repository skipped for this cycle")
			continue
		}
		p.recordPoll(repo, observability.ResultSuccess)
	}

	elapsed := p.now().Sub(start)
	if p.metrics != nil {
		p.metrics.CycleDuration.Observe(elapsed.Seconds())
	}
	if failures == 0 {
		p.lastCycle.Store(p.now().UnixNano())
	}
	log.Debug().Dur("elapsed", elapsed).Int("failures", failures).Msg("poll cycle finished")
	return nil
}

func (p *Poller) pollRepository(ctx context.Context, log zerolog.Logger, repo *git.Repository) error {
	if repo.IsCloned() {
		if err := repo.Refresh(ctx); err != nil {
			return err
		}
	} else {
		dest, err := p.workspace.NewPath()
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to allocate a clone destination").
				WithContext("repository", repo.Name())
		}
		log.Info().Str("repository", repo.Name()).Str("path", dest).Msg("cloning repository")
		if err := repo.EnsureCloned(ctx, dest, p.settings.HistoryDepth); err != nil {
			return err
		}
	}

	batch, err := repo.PollNewCommits(ctx)
	if err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.NewCommits.WithLabelValues(repo.Name()).Add(float64(len(batch)))
	}

	if err := ui.WriteReportHeader(p.out, repo.URL(), len(batch)); err != nil {
		return reportError(repo, err)
	}
	for _, c := range batch {
		commitURL := repo.CommitURL(c.Hash)
		p.deliver(ctx, log, repo, c, commitURL)
		if err := ui.WriteReportCommit(p.out, c.Subject, commitURL); err != nil {
			return reportError(repo, err)
		}
	}
	return nil
}

func reportError(repo *git.Repository, err error) error {
	return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to write commit report").
		WithContext("repository", repo.Name())
}

// deliver hands one commit to every transport when the throttle allows it.
// Transport failures are logged and never stop the cycle.
func (p *Poller) deliver(ctx context.Context, log zerolog.Logger, repo *git.Repository, c models.Commit, commitURL string) {
	allowed := p.throttle.ShouldAllow()
	if p.metrics != nil {
		p.metrics.ThrottleBudgetRemains.Set(float64(p.throttle.Remaining()))
	}
	if !allowed {
		if p.metrics != nil {
			p.metrics.ThrottledDeliveries.Inc()
		}
		log.Debug().Str("repository", repo.Name()).Str("hash", c.Hash).Msg("notification throttled")
		return
	}

	n := notify.Notification{
		Title:     repo.Name(),
		Message:   c.Subject,
		URL:       commitURL,
		Timestamp: p.now(),
	}

	for _, t := range p.transports {
		if err := t.Send(ctx, n); err != nil {
			p.recordNotification(t.Name(), observability.ResultError)
			log.Warn().Err(err).
				Str("transport", t.Name()).
				Str("repository", repo.Name()).
				Str("hash", c.Hash).
				Msg("notification not delivered")
			continue
		}
		p.recordNotification(t.Name(), observability.ResultSuccess)
	}
}

func (p *Poller) recordPoll(repo *git.Repository, result string) {
	if p.metrics == nil {
		return
	}
	p.metrics.Polls.WithLabelValues(repo.Name(), result).Inc()
	if result == observability.ResultSuccess {
		p.metrics.LastSuccessfulPoll.WithLabelValues(repo.Name()).Set(float64(p.now().Unix()))
	}
}

func (p *Poller) recordNotification(transport, result string) {
	if p.metrics != nil {
		p.metrics.Notifications.WithLabelValues(transport, result).Inc()
	}
}

// LastSuccessfulCycle returns when the last cycle without failures finished
func (p *Poller) LastSuccessfulCycle() (time.Time, bool) {
	ns := p.lastCycle.Load()
	if ns == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}

// HealthCheck reports DOWN once no cycle has succeeded for three poll intervals
func (p *Poller) HealthCheck() observability.HealthCheck {
	return observability.CheckFunc{
		CheckName: "poller",
		Fn: func(ctx context.Context) observability.HealthResult {
			now := p.now()
			last, ok := p.LastSuccessfulCycle()
			if !ok {
				return observability.HealthResult{
					Status:    observability.HealthStatusUnknown,
					Message:   "no completed poll cycle yet",
					Timestamp: now,
				}
			}

			age := now.Sub(last)
			result := observability.HealthResult{
				Status:    observability.HealthStatusUp,
				Details:   map[string]interface{}{"last_cycle": last.Format(time.RFC3339)},
				Timestamp: now,
			}
			if age > 3*p.settings.PollInterval {
				result.Status = observability.HealthStatusDown
				result.Message = fmt.Sprintf("last successful cycle %s ago", age.Round(time.Second))
			}
			return result
		},
	}
}
