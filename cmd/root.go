package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gitnotifier/internal/config"
	"gitnotifier/internal/observability"
	"gitnotifier/internal/ui"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "gitnotifier",
		Short: "Get notified about new commits in git repositories",
		Long: `gitnotifier polls a set of remote git repositories on a fixed schedule, prints
the commits that appeared since the previous poll and sends rate-limited
notifications about them (desktop, webhook, Slack or console).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Output = os.Stderr
		ui.ShowError(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./gitnotifier.yaml or ~/.gitnotifier/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "log format: console or json")
}

// configFile returns the file the config-editing commands work on
func configFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.GetConfigFile()
}

// newSettings builds the merged viper view for cmd: defaults, config file,
// GITNOTIFIER_* environment and any flags listed in keys. It also sets up logging.
func newSettings(cmd *cobra.Command, keys map[string]string) (*viper.Viper, error) {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return nil, err
	}

	keys["log.level"] = "log-level"
	keys["log.format"] = "log-format"
	if err := bindFlags(v, cmd.Flags(), keys); err != nil {
		return nil, err
	}

	observability.Init(observability.Options{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	})
	return v, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}
