package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/inovacc/plugr/internal/cli"
	"github.com/inovacc/plugr/internal/model"
	"github.com/inovacc/plugr/internal/store"
	"github.com/inovacc/plugr/internal/version"
)

var (
	listPlain   bool
	listPrivate bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked plugins",
	Long: `Show all tracked repositories with their installed and remote versions.
Runs an interactive picker by default; use --plain for script-friendly output.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		repos, err := a.workflow.ListRepositories(store.ListOptions{PrivateOnly: listPrivate})
		if err != nil {
			return err
		}

		if listPlain {
			return printRepoTable(repos)
		}

		m := cli.NewRepoList(repos)

		p := tea.NewProgram(m)
		_, err = p.Run()

		return err
	},
}

func printRepoTable(repos []model.Repository) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "REPOSITORY\tBRANCH\tINSTALLED\tREMOTE\tUPDATE")

	for i := range repos {
		r := &repos[i]

		update := ""
		if version.IsUpdateAvailable(r.RemoteVersion, r.InstalledVersion) {
			update = "yes"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.FullName(), r.Branch, r.InstalledVersion, r.RemoteVersion, update)
	}

	return w.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listPlain, "plain", false, "Print a plain table instead of the interactive list")
	listCmd.Flags().BoolVar(&listPrivate, "private", false, "Show only private repositories")
}
