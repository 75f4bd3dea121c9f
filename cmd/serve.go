package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inovacc/plugr/internal/model"
	"github.com/inovacc/plugr/internal/store"
	"github.com/inovacc/plugr/internal/web"
)

var (
	servePort int
	serveHost string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to run the admin API on")
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind the admin API to")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin API server",
	Long: `Start the HTTP server that exposes the plugin administration API.

The server binds to localhost by default. When an admin token is configured
(via 'plugr token admin' or the PLUGR_ADMIN_TOKEN environment variable), every
/api route requires it as a bearer token.

Examples:
  plugr serve                  # Start on default port 8080
  plugr serve --port 9000      # Start on custom port`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	config := web.DefaultConfig()
	config.Port = servePort
	config.Host = serveHost
	config.AdminToken = adminToken(a.store)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		_, _ = fmt.Fprintln(os.Stdout, "\nShutting down...")
		cancel()
	}()

	_, _ = fmt.Fprintf(os.Stdout, "Starting admin API on http://%s:%d\n", config.Host, config.Port)
	_, _ = fmt.Fprintln(os.Stdout, "Press Ctrl+C to stop")

	return web.New(config, a.workflow).Start(ctx)
}

func adminToken(st store.Store) string {
	if token := os.Getenv("PLUGR_ADMIN_TOKEN"); token != "" {
		return token
	}

	token, err := st.GetSetting(model.SettingAdminToken)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			_, _ = fmt.Fprintf(os.Stderr, "Warning: reading admin token: %v\n", err)
		}

		return ""
	}

	return token
}
