package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"gitnotifier/internal/common"
	"gitnotifier/internal/config"
	"gitnotifier/internal/git"
	"gitnotifier/internal/notify"
	"gitnotifier/internal/observability"
	"gitnotifier/internal/poller"
	"gitnotifier/internal/throttle"
	"gitnotifier/pkg/models"
)

var watchOpts struct {
	repos []string
	once  bool
}

// watchFlagKeys maps config keys to the watch flags overriding them
var watchFlagKeys = map[string]string{
	"history_depth":       "history-depth",
	"poll_interval":       "poll-interval",
	"throttle_window":     "throttle-window",
	"throttle_budget":     "throttle-budget",
	"backend":             "backend",
	"git_timeout":         "git-timeout",
	"workspace":           "workspace",
	"keep_going":          "keep-going",
	"metrics_addr":        "metrics-addr",
	"notifier.transports": "transport",
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the configured repositories and notify about new commits",
	Long: `Poll every configured repository on a fixed interval. New commits are
printed to stdout and sent to the configured notification transports, at most
--throttle-budget deliveries per --throttle-window.

Repositories come from the config file and from repeated --repos descriptors:

  gitnotifier watch --repos '{"url":"https://github.com/acme/core","commit_subpath":"/commit/","branch":"main"}'`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	flags := watchCmd.Flags()
	flags.StringArrayVar(&watchOpts.repos, "repos", nil, "repository descriptor as JSON (repeatable)")
	flags.BoolVar(&watchOpts.once, "once", false, "run a single poll cycle and exit")
	flags.Bool("keep-going", false, "skip a failing repository instead of exiting")
	flags.String("metrics-addr", "", "serve Prometheus metrics and health checks on this address")
	flags.String("backend", config.DefaultBackend, "git backend: git or go-git")
	flags.String("workspace", "", "parent directory for the clone workspace (default system temp dir)")
	flags.Int("history-depth", config.DefaultHistoryDepth, "number of commits fetched on the first clone")
	flags.Duration("poll-interval", config.DefaultPollInterval, "time between poll cycles")
	flags.Duration("throttle-window", config.DefaultThrottleWindow, "length of the notification throttle window")
	flags.Int("throttle-budget", config.DefaultThrottleBudget, "notifications allowed per throttle window")
	flags.Duration("git-timeout", 0, "timeout for each git operation (0 means none)")
	flags.StringSlice("transport", nil, "notification transports: desktop, webhook, slack, console")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	keys := make(map[string]string, len(watchFlagKeys))
	for k, v := range watchFlagKeys {
		keys[k] = v
	}
	v, err := newSettings(cmd, keys)
	if err != nil {
		return err
	}

	cfg, err := loadWatchConfig(v, watchOpts.repos)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watch(ctx, cmd, cfg, watchOpts.once)
}

// loadWatchConfig decodes the merged settings, appends the command-line
// descriptors and validates the result before anything is polled
func loadWatchConfig(v *viper.Viper, descriptors []string) (*models.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	extra, err := config.ParseRepoDescriptors(descriptors)
	if err != nil {
		return nil, err
	}
	cfg.Repositories = append(cfg.Repositories, extra...)

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func watch(ctx context.Context, cmd *cobra.Command, cfg *models.Config, once bool) error {
	log := observability.Named("watch")

	ws, err := common.NewWorkspace(cfg.Workspace)
	if err != nil {
		return err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			log.Warn().Err(err).Str("path", ws.Root()).Msg("failed to remove workspace")
		}
	}()

	auth := git.NewAuthManager(git.AuthOptions{
		SSHKeyPath:          cfg.SSH.KeyPath,
		KnownHostsFile:      cfg.SSH.KnownHosts,
		InsecureSkipHostKey: cfg.SSH.InsecureSkipHostKey,
	})
	source, err := git.NewSource(cfg.Backend, auth)
	if err != nil {
		return err
	}

	repoLog := observability.Named("repository")
	repos := make([]*git.Repository, 0, len(cfg.Repositories))
	for _, rc := range cfg.Repositories {
		repos = append(repos, git.NewRepository(rc, source,
			git.WithTimeout(cfg.GitTimeout),
			git.WithLogger(*repoLog),
		))
	}

	transports, err := notify.Build(cfg.Notifier, notify.Options{Console: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer notify.Close(transports)

	metrics := observability.NewMetrics()
	p := poller.New(repos, throttle.New(cfg.ThrottleWindow, cfg.ThrottleBudget), ws,
		poller.Settings{
			HistoryDepth: cfg.HistoryDepth,
			PollInterval: cfg.PollInterval,
			KeepGoing:    cfg.KeepGoing,
		},
		poller.WithTransports(transports...),
		poller.WithOutput(cmd.OutOrStdout()),
		poller.WithMetrics(metrics),
		poller.WithLogger(*observability.Named("poller")),
	)

	log.Info().
		Int("repositories", len(repos)).
		Str("backend", cfg.Backend).
		Dur("poll_interval", cfg.PollInterval).
		Str("workspace", ws.Root()).
		Msg("watching repositories")

	if once {
		return p.RunCycle(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		health := observability.NewHealthManager(5 * time.Second)
		health.RegisterCheck(p.HealthCheck())
		srv := observability.NewServer(cfg.MetricsAddr, metrics, health)
		g.Go(func() error { return srv.Run(gctx) })
	}
	g.Go(func() error { return p.Run(gctx) })

	err = g.Wait()
	log.Info().Msg("stopped")
	return err
}
