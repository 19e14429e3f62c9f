package git

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gitnotifier/pkg/errors"
	"gitnotifier/pkg/models"
)

// Repository is the runtime state of one watched repository: where it is
// cloned and the newest commit already reported. It is owned by a single
// goroutine.
type Repository struct {
	config models.Repository
	source CommitSource

	localPath string
	mark      string
	hasMark   bool

	timeout time.Duration
	logger  zerolog.Logger
}

// RepositoryOption configures a Repository
type RepositoryOption func(*Repository)

// WithTimeout bounds every git operation. Zero means no bound.
func WithTimeout(timeout time.Duration) RepositoryOption {
	return func(r *Repository) {
		r.timeout = timeout
	}
}

// WithLogger sets the logger used for lifecycle events
func WithLogger(logger zerolog.Logger) RepositoryOption {
	return func(r *Repository) {
		r.logger = logger
	}
}

// NewRepository creates an uncloned repository with no high-water mark
func NewRepository(config models.Repository, source CommitSource, opts ...RepositoryOption) *Repository {
	r := &Repository{
		config: config,
		source: source,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With().Str("repository", config.Identifier()).Str("branch", config.Branch).Logger()
	return r
}

// Name identifies the repository in notifications and logs
func (r *Repository) Name() string {
	return r.config.Identifier()
}

// URL is the remote location
func (r *Repository) URL() string {
	return r.config.URL
}

// Config returns the descriptor the repository was created from
func (r *Repository) Config() models.Repository {
	return r.config
}

// LocalPath is the clone directory, empty until the first successful clone
func (r *Repository) LocalPath() string {
	return r.localPath
}

// IsCloned reports whether EnsureCloned has succeeded
func (r *Repository) IsCloned() bool {
	return r.localPath != ""
}

// HighWaterMark returns the newest hash seen by the last successful poll
func (r *Repository) HighWaterMark() (string, bool) {
	return r.mark, r.hasMark
}

// CommitURL builds the web permalink of a commit
func (r *Repository) CommitURL(hash string) string {
	return r.config.URL + r.config.CommitSubpath + hash
}

// EnsureCloned clones the tracked branch into destination, keeping only depth
// commits. The local path is recorded only when the clone succeeds.
func (r *Repository) EnsureCloned(ctx context.Context, destination string, depth int) error {
	if r.IsCloned() {
		return errors.InvalidStateError(r.Name(), "clone",
			fmt.Sprintf("Repository %s is already cloned at %s", r.Name(), r.localPath))
	}

	opCtx, cancel := r.operationContext(ctx)
	defer cancel()

	start := time.Now()
	if err := r.source.Clone(opCtx, r.config.URL, r.config.Branch, destination, depth); err != nil {
		return errors.CloneError(r.Name(), err).
			WithContext("branch", r.config.Branch).
			WithContext("destination", destination)
	}

	r.localPath = destination
	r.logger.Info().
		Str("path", destination).
		Int("depth", depth).
		Dur("duration", time.Since(start)).
		Msg("Repository cloned")
	return nil
}

// Refresh fetches the tracked branch into the existing clone
func (r *Repository) Refresh(ctx context.Context) error {
	if !r.IsCloned() {
		return errors.NotClonedError(r.Name())
	}

	opCtx, cancel := r.operationContext(ctx)
	defer cancel()

	start := time.Now()
	if err := r.source.Fetch(opCtx, r.localPath, r.config.Branch); err != nil {
		return errors.FetchError(r.Name(), err).WithContext("branch", r.config.Branch)
	}

	r.logger.Debug().Dur("duration", time.Since(start)).Msg("Repository fetched")
	return nil
}

// PollNewCommits returns the commits that appeared on origin/<branch> since
// the previous successful poll, oldest first, and advances the high-water
// mark to the current tip. The mark is untouched when the poll fails.
func (r *Repository) PollNewCommits(ctx context.Context) (models.CommitBatch, error) {
	if !r.IsCloned() {
		return nil, errors.NotClonedError(r.Name()).WithContext("operation", "poll")
	}

	opCtx, cancel := r.operationContext(ctx)
	defer cancel()

	hashes, err := r.source.ListHashes(opCtx, r.localPath, r.config.Branch)
	if err != nil {
		return nil, errors.HistoryQueryError(r.Name(), r.config.Branch, err)
	}
	subjects, err := r.source.ListSubjects(opCtx, r.localPath, r.config.Branch)
	if err != nil {
		return nil, errors.HistoryQueryError(r.Name(), r.config.Branch, err)
	}

	if len(hashes) == 0 {
		return nil, errors.EmptyHistoryError(r.Name(), r.config.Branch)
	}
	if len(hashes) != len(subjects) {
		return nil, errors.HistoryMismatchError(r.Name(), len(hashes), len(subjects))
	}

	batch, found := detectNew(hashes, subjects, r.mark, r.hasMark)
	if r.hasMark && !found {
		r.logger.Warn().
			Bool("mark_lost", true).
			Str("mark", r.mark).
			Int("window", len(hashes)).
			Msg("Previous tip is outside the fetched history; reporting the whole window")
	}

	r.mark = hashes[0]
	r.hasMark = true

	r.logger.Debug().Int("new_commits", len(batch)).Str("tip", r.mark).Msg("Polled repository")
	return batch, nil
}

// operationContext detaches git work from loop cancellation so an in-flight
// clone or fetch is never torn down halfway. Only the timeout applies.
func (r *Repository) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if r.timeout > 0 {
		return context.WithTimeout(detached, r.timeout)
	}
	return detached, func() {}
}
