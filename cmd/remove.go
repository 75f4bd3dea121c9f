package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inovacc/plugr/internal/core"
)

var (
	removeDataOnly  bool
	removeFilesOnly bool
	removeYes       bool
)

var removeCmd = &cobra.Command{
	Use:     "remove <repo>",
	Aliases: []string{"rm"},
	Short:   "Stop tracking a plugin",
	Long: `Remove a tracked repository. By default both the database record and the
installed files are removed; --data-only keeps the files on disk, --files-only
keeps the record (the plugin then reports as files-missing until reinstalled).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if removeDataOnly && removeFilesOnly {
			return fmt.Errorf("--data-only and --files-only are mutually exclusive")
		}

		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		repo, err := resolveRepo(a.store, args[0])
		if err != nil {
			return err
		}

		if !removeYes {
			if !promptConfirm(fmt.Sprintf("Remove '%s'? [y/N]: ", repo.FullName())) {
				_, _ = fmt.Fprintln(os.Stdout, "Cancelled.")
				return nil
			}
		}

		mode := core.DeleteBoth

		switch {
		case removeDataOnly:
			mode = core.DeleteDataOnly
		case removeFilesOnly:
			mode = core.DeleteFilesOnly
		}

		res, err := a.workflow.DeleteRepository(cmd.Context(), repo.ID, mode)
		if err != nil {
			return err
		}

		printWarning(res.Warning)

		_, _ = fmt.Fprintf(os.Stdout, "Removed: %s\n", repo.FullName())

		return nil
	},
}

func promptConfirm(prompt string) bool {
	_, _ = fmt.Fprint(os.Stdout, prompt)

	var response string
	_, _ = fmt.Scanln(&response)

	return response == "y" || response == "Y"
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().BoolVar(&removeDataOnly, "data-only", false, "Remove the record, keep the files")
	removeCmd.Flags().BoolVar(&removeFilesOnly, "files-only", false, "Remove the files, keep the record")
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Skip confirmation prompt")
}
