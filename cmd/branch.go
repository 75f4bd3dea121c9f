package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:   "branch <repo> [new-branch]",
	Short: "Show or switch the tracked branch",
	Long: `Without a branch argument, list the branches available on the remote.
With one, switch the tracked branch: the old checkout is replaced by a fresh
clone of the new branch. If the clone fails, the old branch stays tracked.`,
	Args: cobra.RangeArgs(1, 2),
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

		if len(args) == 1 {
			branches, err := a.workflow.RemoteBranches(cmd.Context(), repo.ID)
			if err != nil {
				return err
			}

			for _, b := range branches {
				marker := "  "
				if b == repo.Branch {
					marker = "* "
				}

				_, _ = fmt.Fprintf(os.Stdout, "%s%s\n", marker, b)
			}

			return nil
		}

		updated, err := a.workflow.ChangeBranch(cmd.Context(), repo.ID, args[1])
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(os.Stdout, "Now tracking: %s on %s\n", updated.FullName(), updated.Branch)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(branchCmd)
}
