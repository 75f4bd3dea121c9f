package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/inovacc/plugr/internal/application"
)

var (
	flagPluginDir string
	flagDataDir   string
)

var rootCmd = &cobra.Command{
	Use:   application.AppName,
	Short: "A GitHub-backed plugin manager",
	Long: `Plugr tracks GitHub repositories as installable plugins.
It installs them into the plugin directory via git, watches the remote for
version drift, and sequences updates around the plugin host's activation
state.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command for introspection purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPluginDir, "plugin-dir", "", "Plugin directory (defaults to the configured or data-dir location)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Data directory (defaults to the user config directory)")
}
