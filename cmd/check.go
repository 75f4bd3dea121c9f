package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <repo>",
	Short: "Check a plugin for version drift",
	Long: `Reconcile the installed version against the remote source.
The repository can be given as an id, an owner/name pair, or a plugin slug.`,
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

		res, err := a.workflow.CheckVersion(cmd.Context(), repo.ID)
		if err != nil {
			return err
		}

		printWarning(res.Warning)

		switch {
		case res.FilesMissing:
			_, _ = fmt.Fprintf(os.Stdout, "%s: files missing (remote %s)\n",
				repo.FullName(), res.Remote.Value)
		case res.UpdateAvailable:
			_, _ = fmt.Fprintf(os.Stdout, "%s: update available (%s -> %s)\n",
				repo.FullName(), res.Installed.Value, res.Remote.Value)
		default:
			_, _ = fmt.Fprintf(os.Stdout, "%s: up to date (%s)\n",
				repo.FullName(), res.Installed.Value)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
