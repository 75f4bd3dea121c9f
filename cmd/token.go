package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inovacc/plugr/internal/model"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage access tokens",
}

var tokenGitHubCmd = &cobra.Command{
	Use:   "github <token>",
	Short: "Set the GitHub access token",
	Long: `Store the token used for private clones and API calls.
Pass an empty string to clear it. PLUGR_GITHUB_TOKEN overrides the stored
value when set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.workflow.SetGitHubToken(args[0]); err != nil {
			return err
		}

		if args[0] == "" {
			_, _ = fmt.Fprintln(os.Stdout, "GitHub token cleared.")
		} else {
			_, _ = fmt.Fprintln(os.Stdout, "GitHub token stored.")
		}

		return nil
	},
}

var tokenAdminCmd = &cobra.Command{
	Use:   "admin <token>",
	Short: "Set the admin API bearer token",
	Long: `Store the token the admin API requires on /api routes.
Pass an empty string to clear it and run the API unauthenticated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if args[0] == "" {
			if err := a.store.DeleteSetting(model.SettingAdminToken); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(os.Stdout, "Admin token cleared.")

			return nil
		}

		if err := a.store.SetSetting(model.SettingAdminToken, args[0]); err != nil {
			return err
		}

		_, _ = fmt.Fprintln(os.Stdout, "Admin token stored.")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenGitHubCmd)
	tokenCmd.AddCommand(tokenAdminCmd)
}
