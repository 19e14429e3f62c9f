package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gitnotifier/internal/common"
	"gitnotifier/internal/git"
	"gitnotifier/internal/ui"
)

var authToken string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage credentials used by the go-git backend",
	Long: `Store credentials in the system keyring. They are used by the go-git
backend; the git backend relies on your git credential helpers and ssh config.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <host>",
	Short: "Store an HTTPS access token for a host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := authToken
		if token == "" {
			var err error
			if token, err = ui.Password(fmt.Sprintf("Access token for %s:", args[0]), ""); err != nil {
				return err
			}
		}
		if err := git.NewAuthManager(git.AuthOptions{}).StoreToken(args[0], token); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token for %s stored\n", args[0])
		return nil
	},
}

var authRemoveCmd = &cobra.Command{
	Use:   "remove <host>",
	Short: "Delete the stored access token of a host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := git.NewAuthManager(git.AuthOptions{}).RemoveToken(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token for %s removed\n", args[0])
		return nil
	},
}

var authPassphraseCmd = &cobra.Command{
	Use:   "passphrase <key-path>",
	Short: "Store the passphrase of an encrypted SSH key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyPath, err := common.CleanPath(args[0])
		if err != nil {
			return err
		}
		passphrase, err := ui.Password(fmt.Sprintf("Passphrase for %s:", keyPath), "")
		if err != nil {
			return err
		}
		if err := git.NewAuthManager(git.AuthOptions{}).StorePassphrase(keyPath, passphrase); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Passphrase for %s stored\n", keyPath)
		return nil
	},
}

func init() {
	authSetCmd.Flags().StringVar(&authToken, "token", "", "token value (prompted for when omitted)")

	authCmd.AddCommand(authSetCmd, authRemoveCmd, authPassphraseCmd)
	rootCmd.AddCommand(authCmd)
}
