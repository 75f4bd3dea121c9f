package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var updateForce bool

var updateCmd = &cobra.Command{
	Use:   "update <repo>",
	Short: "Update a plugin to its branch head",
	Long: `Replace the installed files with the tracked branch's current state.
An active plugin is deactivated for the duration of the update and reactivated
afterwards; if reactivation fails the update still counts as applied and the
plugin is left inactive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		repo, err := resolveRepo(a.store, args[0])
		if err != nil {
			return err
		}

		res, err := a.workflow.UpdateRepository(cmd.Context(), repo.ID, updateForce)
		if err != nil {
			return err
		}

		printWarning(res.Warning)

		_, _ = fmt.Fprintf(os.Stdout, "Updated: %s (version %s)\n",
			res.Repo.FullName(), res.Repo.InstalledVersion)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVarP(&updateForce, "force", "f", false, "Remove the installed files and clone fresh")
}
