package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/inovacc/plugr/internal/core"
	"github.com/inovacc/plugr/internal/git"
	"github.com/inovacc/plugr/internal/githubapi"
	"github.com/inovacc/plugr/internal/host"
	"github.com/inovacc/plugr/internal/installer"
	"github.com/inovacc/plugr/internal/model"
	"github.com/inovacc/plugr/internal/params"
	"github.com/inovacc/plugr/internal/store"
	"github.com/inovacc/plugr/internal/store/sqlite"
)

// app bundles everything a command needs, wired once per invocation.
type app struct {
	store    *sqlite.Store
	cache    *githubapi.Cache
	source   *githubapi.Client
	workflow *core.Workflow
	log      *slog.Logger
}

// buildApp wires the store, cache, source client, installer, registry and
// workflow. Callers must Close it.
func buildApp(ctx context.Context) (*app, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = params.AppdataDir
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	st, err := sqlite.New(filepath.Join(dataDir, "plugr.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pluginDir := flagPluginDir
	if pluginDir == "" {
		pluginDir = os.Getenv("PLUGR_PLUGIN_DIR")
	}

	if pluginDir == "" {
		if configured, err := st.GetSetting(model.SettingPluginDir); err == nil {
			pluginDir = configured
		} else {
			pluginDir = filepath.Join(dataDir, "plugins")
		}
	}

	registry, err := host.NewDirRegistry(pluginDir, logger)
	if err != nil {
		_ = st.Close()

		return nil, err
	}

	gitClient, err := git.NewClient()
	if err != nil {
		_ = st.Close()

		return nil, err
	}

	cache, err := githubapi.OpenCache(filepath.Join(dataDir, "cache.db"), 0)
	if err != nil {
		_ = st.Close()

		return nil, err
	}

	source := githubapi.NewClient(ctx, githubToken(st), cache, logger)

	inst := installer.New(gitClient, pluginDir, func() string { return githubToken(st) }, logger)

	return &app{
		store:    st,
		cache:    cache,
		source:   source,
		workflow: core.New(st, source, inst, registry, logger),
		log:      logger,
	}, nil
}

func (a *app) Close() {
	_ = a.cache.Close()
	_ = a.store.Close()
}

// githubToken resolves the access token: the environment wins over the
// persisted setting.
func githubToken(st store.Store) string {
	if token := os.Getenv("PLUGR_GITHUB_TOKEN"); token != "" {
		return token
	}

	token, err := st.GetSetting(model.SettingGitHubToken)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("reading github token", "error", err)
		}

		return ""
	}

	return token
}

// resolveRepo accepts an id, an owner/name pair, or a plugin slug.
func resolveRepo(st store.Store, arg string) (*model.Repository, error) {
	if repo, err := st.GetRepo(arg); err == nil {
		return repo, nil
	}

	if owner, name, ok := splitOwnerName(arg); ok {
		if repo, err := st.GetRepoByOwnerName(owner, name); err == nil {
			return repo, nil
		}
	}

	repo, err := st.GetRepoBySlug(arg)
	if err != nil {
		return nil, fmt.Errorf("no tracked repository matches %q", arg)
	}

	return repo, nil
}

func splitOwnerName(arg string) (string, string, bool) {
	for i := range arg {
		if arg[i] == '/' {
			owner, name := arg[:i], arg[i+1:]

			return owner, name, owner != "" && name != ""
		}
	}

	return "", "", false
}

// printWarning surfaces a non-fatal problem on stderr.
func printWarning(w *core.Warning) {
	if w == nil {
		return
	}

	_, _ = fmt.Fprintf(os.Stderr, "Warning: %s\n", w.Message)
}
