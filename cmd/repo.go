package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"gitnotifier/internal/config"
	"gitnotifier/internal/git"
	"gitnotifier/internal/ui"
	apperrors "gitnotifier/pkg/errors"
	"gitnotifier/pkg/models"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage watched repositories",
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured repositories",
	Args:  cobra.NoArgs,
	RunE:  runRepoList,
}

var repoAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a repository to watch",
	Long: `Add a repository to the config file. Without --url the details are asked
for interactively.`,
	Args: cobra.NoArgs,
	RunE: runRepoAdd,
}

var repoRemoveCmd = &cobra.Command{
	Use:   "remove <name|url|index>",
	Short: "Stop watching a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoRemove,
}

var repoAddOpts models.Repository

var repoRemoveYes bool

func init() {
	flags := repoAddCmd.Flags()
	flags.StringVar(&repoAddOpts.Name, "name", "", "display name used as notification title")
	flags.StringVar(&repoAddOpts.URL, "url", "", "remote URL (https, ssh, file:// or local path)")
	flags.StringVar(&repoAddOpts.Branch, "branch", "main", "branch to watch")
	flags.StringVar(&repoAddOpts.CommitSubpath, "commit-subpath", "/commit/", "path between the URL and a commit hash in permalinks")

	repoRemoveCmd.Flags().BoolVarP(&repoRemoveYes, "yes", "y", false, "do not ask for confirmation")

	repoCmd.AddCommand(repoListCmd, repoAddCmd, repoRemoveCmd)
	rootCmd.AddCommand(repoCmd)
}

func runRepoList(cmd *cobra.Command, args []string) error {
	cfg, err := config.ReadFile(configFile())
	if err != nil {
		return err
	}

	ui.WriteRepositoryTable(cmd.OutOrStdout(), cfg.Repositories)
	return nil
}

func runRepoAdd(cmd *cobra.Command, args []string) error {
	path := configFile()
	cfg, err := readOrDefault(path)
	if err != nil {
		return err
	}

	repo := repoAddOpts
	if repo.URL == "" {
		if repo, err = askRepository(); err != nil {
			return err
		}
	}

	if err := checkNewRepository(cfg.Repositories, repo); err != nil {
		return err
	}

	cfg.Repositories = append(cfg.Repositories, repo)
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Repository '%s' added to %s\n", repo.Identifier(), path)
	return nil
}

func runRepoRemove(cmd *cobra.Command, args []string) error {
	path := configFile()
	cfg, err := config.ReadFile(path)
	if err != nil {
		return err
	}

	idx := findRepository(cfg.Repositories, args[0])
	if idx < 0 {
		return apperrors.ConfigError(fmt.Sprintf("Repository '%s' not found", args[0]), "repositories").
			WithSuggestions("Run 'gitnotifier repo list' to see configured repositories")
	}
	target := cfg.Repositories[idx]

	if !repoRemoveYes {
		ok, err := ui.Confirm(fmt.Sprintf("Remove repository '%s'?", target.Identifier()), false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Removal cancelled")
			return nil
		}
	}

	cfg.Repositories = append(cfg.Repositories[:idx:idx], cfg.Repositories[idx+1:]...)
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Repository '%s' removed\n", target.Identifier())
	return nil
}

// readOrDefault reads the config file, falling back to defaults when it does not exist yet
func readOrDefault(path string) (*models.Config, error) {
	cfg, err := config.ReadFile(path)
	if apperrors.GetErrorCode(err) == apperrors.ErrCodeConfigNotFound {
		return config.Defaults(), nil
	}
	return cfg, err
}

func askRepository() (models.Repository, error) {
	var repo models.Repository
	var err error

	validURL := func(val interface{}) error {
		s, _ := val.(string)
		return git.ValidateGitURL(s)
	}

	if repo.URL, err = ui.Input("Remote URL:", "", "https, ssh, file:// or an absolute path", survey.Required, validURL); err != nil {
		return repo, err
	}
	if repo.Branch, err = ui.Input("Branch:", "main", "", survey.Required); err != nil {
		return repo, err
	}
	if repo.CommitSubpath, err = ui.Input("Commit path:", defaultCommitSubpath(repo.URL),
		"Inserted between the URL and the hash to build permalinks", survey.Required); err != nil {
		return repo, err
	}
	if repo.Name, err = ui.Input("Name (optional):", git.ExtractRepoName(repo.URL), "Shown as the notification title"); err != nil {
		return repo, err
	}

	return repo, nil
}

// defaultCommitSubpath guesses the permalink path from the hosting service
func defaultCommitSubpath(url string) string {
	switch {
	case strings.Contains(url, "gitlab"):
		return "/-/commit/"
	case strings.Contains(url, "bitbucket"):
		return "/commits/"
	default:
		return "/commit/"
	}
}

func checkNewRepository(existing []models.Repository, repo models.Repository) error {
	v, err := config.NewValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(repo); err != nil {
		return apperrors.ConfigError(fmt.Sprintf("Invalid repository: %v", err), "repositories")
	}
	for _, r := range existing {
		if repo.Name != "" && r.Name == repo.Name {
			return apperrors.ConfigError(fmt.Sprintf("Repository name '%s' is already used", repo.Name), "name")
		}
		if r.URL == repo.URL && r.Branch == repo.Branch {
			return apperrors.ConfigError(
				fmt.Sprintf("%s (%s) is already watched", repo.URL, repo.Branch), "url")
		}
	}
	return nil
}

// findRepository matches by name, then URL, then list index
func findRepository(repos []models.Repository, key string) int {
	for i, r := range repos {
		if r.Name != "" && r.Name == key {
			return i
		}
	}
	for i, r := range repos {
		if r.URL == key {
			return i
		}
	}
	if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(repos) {
		return i
	}
	return -1
}
