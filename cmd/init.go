package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"gitnotifier/internal/config"
	"gitnotifier/internal/notify"
	"gitnotifier/internal/ui"
	apperrors "gitnotifier/pkg/errors"
	"gitnotifier/pkg/models"
)

var initFlags struct {
	force       bool
	interactive bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Write a config file holding the default settings. With --interactive the
notification transports, intervals and a first repository are asked for.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initFlags.force, "force", "f", false, "overwrite an existing config file")
	initCmd.Flags().BoolVarP(&initFlags.interactive, "interactive", "i", false, "ask for the settings")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configFile()
	if config.Exists(path) && !initFlags.force {
		return apperrors.New(apperrors.ErrCodeConfigWrite, fmt.Sprintf("Config file %s already exists", path)).
			WithSuggestions("Use --force to overwrite it", "Use 'gitnotifier repo add' to add repositories")
	}

	cfg := config.Defaults()
	if initFlags.interactive {
		ui.ShowHeader("gitnotifier setup")
		if err := askSettings(cfg); err != nil {
			return err
		}
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
	if len(cfg.Repositories) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Add a repository with 'gitnotifier repo add', then run 'gitnotifier watch'")
	}
	return nil
}

func askSettings(cfg *models.Config) error {
	transports, err := ui.MultiSelect("Notification transports:",
		[]string{notify.TransportDesktop, notify.TransportConsole, notify.TransportSlack, notify.TransportWebhook},
		cfg.Notifier.Transports)
	if err != nil {
		return err
	}
	cfg.Notifier.Transports = transports

	for _, t := range transports {
		switch t {
		case notify.TransportSlack:
			if cfg.Notifier.Slack.WebhookURL, err = ui.Input("Slack incoming webhook URL:", "", "", survey.Required); err != nil {
				return err
			}
		case notify.TransportWebhook:
			if cfg.Notifier.Webhook.URL, err = ui.Input("Webhook URL:", "", "", survey.Required); err != nil {
				return err
			}
		}
	}

	interval, err := ui.Input("Poll interval:", cfg.PollInterval.String(), "A Go duration such as 90s or 5m", isDuration)
	if err != nil {
		return err
	}
	cfg.PollInterval, _ = time.ParseDuration(interval)

	budget, err := ui.Input(fmt.Sprintf("Notifications allowed per %s:", cfg.ThrottleWindow),
		strconv.Itoa(cfg.ThrottleBudget), "", isCount)
	if err != nil {
		return err
	}
	cfg.ThrottleBudget, _ = strconv.Atoi(budget)

	addRepo, err := ui.Confirm("Add a repository now?", true)
	if err != nil || !addRepo {
		return err
	}
	repo, err := askRepository()
	if err != nil {
		return err
	}
	cfg.Repositories = append(cfg.Repositories, repo)
	return nil
}

func isDuration(val interface{}) error {
	s, _ := val.(string)
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	return nil
}

func isCount(val interface{}) error {
	s, _ := val.(string)
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("enter a whole number of zero or more")
	}
	return nil
}
