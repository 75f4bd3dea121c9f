// Package installer materializes tracked repositories into the plugin
// directory and removes them on delete. It is a pure filesystem/VCS actor:
// nothing here activates or deactivates a plugin.
package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/inovacc/plugr/internal/git"
	"github.com/inovacc/plugr/internal/giturl"
	"github.com/inovacc/plugr/internal/model"
)

// ErrTargetConflict means the target directory exists but is not managed by
// plugr (not a git checkout of the tracked repository). Unmanaged files are
// never silently overwritten.
var ErrTargetConflict = errors.New("installer: target directory exists and is not managed")

// ErrUnsafePath guards against a misconfigured slug resolving to the plugin
// root itself, which a recursive delete would wipe entirely.
var ErrUnsafePath = errors.New("installer: refusing to operate on unsafe path")

// ErrCloneFailed means the clone reported success semantics but the target
// directory is absent afterwards.
var ErrCloneFailed = errors.New("installer: clone did not produce a directory")

// TokenFunc supplies the access token for private clones at call time, so a
// token rotated in settings is picked up without reconstructing the installer.
type TokenFunc func() string

// Installer makes on-disk plugin state match a tracked repository.
type Installer struct {
	vcs       git.Backend
	pluginDir string
	token     TokenFunc
	log       *slog.Logger
}

// New creates an Installer rooted at pluginDir.
func New(vcs git.Backend, pluginDir string, token TokenFunc, logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}

	if token == nil {
		token = func() string { return "" }
	}

	return &Installer{vcs: vcs, pluginDir: pluginDir, token: token, log: logger}
}

// PluginDir returns the plugins root.
func (i *Installer) PluginDir() string {
	return i.pluginDir
}

// TargetDir returns the directory a repository installs into.
func (i *Installer) TargetDir(repo *model.Repository) string {
	slug := repo.PluginSlug
	if slug == "" {
		slug = repo.Name
	}

	return filepath.Join(i.pluginDir, slug)
}

// Install clones the tracked branch into the target directory, or updates an
// existing managed checkout via fetch + checkout + pull. A directory that
// exists but is not a managed checkout fails with ErrTargetConflict.
func (i *Installer) Install(ctx context.Context, repo *model.Repository) error {
	dir := i.TargetDir(repo)

	log := i.log.With("op", "install", "repo", repo.FullName(), "branch", repo.Branch, "dir", dir)

	if err := i.checkSafe(dir); err != nil {
		return err
	}

	// A directory left over from an interrupted clone carries a marker and
	// is safe to wipe.
	if git.IsIncomplete(dir) {
		log.Warn("removing incomplete clone")

		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing incomplete clone: %w", err)
		}
	}

	fi, err := os.Stat(dir)

	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := i.vcs.CloneShallow(ctx, i.cloneURL(repo), repo.Branch, dir); err != nil {
			log.Error("clone failed", "error", err)
			return err
		}

		log.Info("cloned")

		return nil

	case err != nil:
		return fmt.Errorf("inspecting target directory: %w", err)

	case !fi.IsDir():
		return fmt.Errorf("%w: %s is a file", ErrTargetConflict, dir)
	}

	if !i.vcs.IsRepository(ctx, dir) || !i.managedBy(dir, repo) {
		log.Error("target conflict")
		return fmt.Errorf("%w: %s", ErrTargetConflict, dir)
	}

	if err := i.vcs.Fetch(ctx, dir, repo.Branch); err != nil {
		log.Error("fetch failed", "error", err)
		return err
	}

	if err := i.vcs.Checkout(ctx, dir, repo.Branch); err != nil {
		log.Error("checkout failed", "error", err)
		return err
	}

	if err := i.vcs.Pull(ctx, dir, repo.Branch); err != nil {
		log.Error("pull failed", "error", err)
		return err
	}

	log.Info("updated")

	return nil
}

// UninstallFiles recursively deletes the plugin's directory.
func (i *Installer) UninstallFiles(ctx context.Context, slug string) error {
	dir := filepath.Join(i.pluginDir, slug)

	log := i.log.With("op", "uninstall", "slug", slug, "dir", dir)

	if slug == "" {
		return ErrUnsafePath
	}

	if err := i.checkSafe(dir); err != nil {
		log.Error("unsafe path")
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		log.Error("delete failed", "error", err)
		return fmt.Errorf("removing plugin files: %w", err)
	}

	log.Info("files removed")

	return nil
}

// ChangeBranch deletes the existing checkout and clones the requested branch
// fresh. Fails with ErrCloneFailed when no directory exists afterwards.
func (i *Installer) ChangeBranch(ctx context.Context, repo *model.Repository, newBranch string) error {
	dir := i.TargetDir(repo)

	log := i.log.With("op", "change-branch", "repo", repo.FullName(), "branch", newBranch, "dir", dir)

	if err := i.checkSafe(dir); err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing old checkout: %w", err)
	}

	if err := i.vcs.CloneShallow(ctx, i.cloneURL(repo), newBranch, dir); err != nil {
		log.Error("clone failed", "error", err)
		return err
	}

	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		log.Error("clone produced nothing")
		return fmt.Errorf("%w: %s", ErrCloneFailed, dir)
	}

	log.Info("branch switched")

	return nil
}

// InstalledCommit returns the abbreviated HEAD commit of a managed checkout.
func (i *Installer) InstalledCommit(ctx context.Context, slug string) (string, error) {
	dir := filepath.Join(i.pluginDir, slug)

	sha, err := i.vcs.HeadCommit(ctx, dir)
	if err != nil {
		return "", err
	}

	if len(sha) > 7 {
		sha = sha[:7]
	}

	return sha, nil
}

func (i *Installer) cloneURL(repo *model.Repository) string {
	u := &giturl.Repository{Owner: repo.Owner, Name: repo.Name, Host: "github.com"}

	if repo.Private {
		return u.AuthenticatedCloneURL(i.token())
	}

	return u.CloneURL()
}

// checkSafe rejects paths that escape or equal the plugin root.
func (i *Installer) checkSafe(dir string) error {
	root, err := filepath.Abs(i.pluginDir)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	if abs == root {
		return fmt.Errorf("%w: %s equals plugin root", ErrUnsafePath, abs)
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s is outside plugin root", ErrUnsafePath, abs)
	}

	return nil
}
