package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	addBranch  string
	addPrivate bool
)

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Track a GitHub repository as a plugin",
	Long: `Register a GitHub repository and install it into the plugin directory.
The repository is cloned shallowly on its tracked branch; if the clone fails,
nothing is left behind.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		repo, err := a.workflow.AddRepository(cmd.Context(), args[0], addBranch, addPrivate)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(os.Stdout, "Added: %s (branch %s, version %s)\n",
			repo.FullName(), repo.Branch, repo.InstalledVersion)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addBranch, "branch", "b", "", "Branch to track (defaults to main)")
	addCmd.Flags().BoolVar(&addPrivate, "private", false, "Repository is private; use the configured token")
}
