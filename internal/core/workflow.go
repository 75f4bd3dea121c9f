// Package core implements the reconciliation workflow: deciding, for each
// tracked repository, what the installed and remote versions are, whether an
// update is available, and sequencing the side effects of update, branch
// change and delete operations.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inovacc/plugr/internal/giturl"
	"github.com/inovacc/plugr/internal/host"
	"github.com/inovacc/plugr/internal/model"
	"github.com/inovacc/plugr/internal/store"
	"github.com/inovacc/plugr/internal/version"
)

// defaultOpTimeout bounds each install/clone sequence so a hung subprocess
// cannot pin an admin request forever.
const defaultOpTimeout = 5 * time.Minute

// Source is the remote-source surface the workflow consumes.
type Source interface {
	ResolveVersion(ctx context.Context, owner, name, branch string) (version.Tagged, error)
	Branches(ctx context.Context, owner, name string) ([]string, error)
	ClearCache(owner, name string) error
}

// Installer is the filesystem/VCS surface the workflow consumes.
type Installer interface {
	Install(ctx context.Context, repo *model.Repository) error
	UninstallFiles(ctx context.Context, slug string) error
	ChangeBranch(ctx context.Context, repo *model.Repository, newBranch string) error
	InstalledCommit(ctx context.Context, slug string) (string, error)
	PluginDir() string
}

// Workflow composes the store, source client, installer and plugin host into
// the administrative operations. All collaborators are injected; there is no
// ambient global state.
type Workflow struct {
	store     store.Store
	source    Source
	installer Installer
	registry  host.Registry
	log       *slog.Logger
	opTimeout time.Duration
}

// New constructs a Workflow.
func New(st store.Store, src Source, inst Installer, reg host.Registry, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}

	return &Workflow{
		store:     st,
		source:    src,
		installer: inst,
		registry:  reg,
		log:       logger,
		opTimeout: defaultOpTimeout,
	}
}

// CheckResult is the outcome of a version check.
type CheckResult struct {
	Repo            *model.Repository `json:"repo"`
	Installed       version.Tagged    `json:"installed"`
	Remote          version.Tagged    `json:"remote"`
	UpdateAvailable bool              `json:"update_available"`
	FilesMissing    bool              `json:"files_missing"`
	Warning         *Warning          `json:"warning,omitempty"`
}

// UpdateResult is the outcome of an update.
type UpdateResult struct {
	Repo        *model.Repository `json:"repo"`
	WasActive   bool              `json:"was_active"`
	Reactivated bool              `json:"reactivated"`
	Warning     *Warning          `json:"warning,omitempty"`
}

// DeleteMode selects what deleteRepository removes.
type DeleteMode string

const (
	DeleteDataOnly  DeleteMode = "data"
	DeleteFilesOnly DeleteMode = "files"
	DeleteBoth      DeleteMode = "all"
)

// DeleteResult is the outcome of a delete. A partial failure (one step
// succeeded, the other did not) is a success carrying a warning.
type DeleteResult struct {
	FilesRemoved bool     `json:"files_removed"`
	DataRemoved  bool     `json:"data_removed"`
	Warning      *Warning `json:"warning,omitempty"`
}

// Status describes a tracked repository for the admin UI.
type Status struct {
	Repo         *model.Repository `json:"repo"`
	Installed    bool              `json:"installed"`
	Active       bool              `json:"active"`
	FilesMissing bool              `json:"files_missing"`
}

// AddRepository registers a repository, persists it, and installs its files.
// The operation is all-or-nothing: an install failure rolls the store insert
// back.
func (w *Workflow) AddRepository(ctx context.Context, rawURL, branch string, private bool) (*model.Repository, error) {
	parsed, err := giturl.ParseRepository(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if branch == "" {
		branch = "main"
	}

	repo := &model.Repository{
		ID:         uuid.New().String(),
		SourceURL:  parsed.CanonicalURL(),
		Owner:      parsed.Owner,
		Name:       parsed.Name,
		Branch:     branch,
		PluginSlug: parsed.Name,
		Private:    private,
	}

	// Remote version resolution is best-effort here: an unreachable or
	// headerless repository still gets tracked, with the sentinel.
	if remote, err := w.source.ResolveVersion(ctx, repo.Owner, repo.Name, branch); err == nil {
		repo.RemoteVersion = remote.Value
	} else {
		w.log.Warn("remote version unresolved at add", "repo", repo.FullName(), "error", err)
		repo.RemoteVersion = model.VersionSentinel
	}

	if err := w.store.CreateRepo(repo); err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, w.opTimeout)
	defer cancel()

	if err := w.installer.Install(opCtx, repo); err != nil {
		// Compensating delete keeps add atomic from the caller's view.
		if derr := w.store.DeleteRepo(repo.ID); derr != nil {
			w.log.Error("rollback of store insert failed", "repo", repo.FullName(), "error", derr)
		}

		return nil, err
	}

	if installed, _, err := w.installedVersion(ctx, repo); err == nil {
		if updated, err := w.store.UpdateRepo(repo.ID, store.RepoUpdate{InstalledVersion: &installed.Value}); err == nil {
			repo = updated
		}
	}

	w.log.Info("repository added", "repo", repo.FullName(), "branch", branch)

	return repo, nil
}

// CheckVersion reconciles installed and remote versions for one repository
// and persists what it observed.
func (w *Workflow) CheckVersion(ctx context.Context, id string) (*CheckResult, error) {
	repo, err := w.store.GetRepo(id)
	if err != nil {
		return nil, err
	}

	remote, err := w.source.ResolveVersion(ctx, repo.Owner, repo.Name, repo.Branch)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{Remote: remote}

	slug := w.effectiveSlug(repo)

	installed := version.Tagged{
		Value:      repo.InstalledVersion,
		Provenance: version.Classify(repo.InstalledVersion),
	}

	if w.registry.IsInstalled(slug) {
		fresh, freshWarning, err := w.installedVersion(ctx, repo)
		if err == nil {
			installed = fresh
		} else {
			// Keep the previously recorded value; the files may simply
			// carry no header.
			result.Warning = warnf(WarnInstalledUnreadable, "installed copy unreadable: %v", err)
		}

		if result.Warning == nil {
			result.Warning = freshWarning
		}
	} else {
		result.FilesMissing = true
	}

	repo, err = w.store.UpdateRepo(repo.ID, store.RepoUpdate{
		InstalledVersion: &installed.Value,
		RemoteVersion:    &remote.Value,
	})
	if err != nil {
		return nil, err
	}

	result.Repo = repo
	result.Installed = installed
	result.UpdateAvailable, result.Warning = w.compareVersions(installed, remote, result.Warning)

	return result, nil
}

// compareVersions decides update availability, refusing cross-provenance
// comparisons involving commit hashes.
func (w *Workflow) compareVersions(installed, remote version.Tagged, warning *Warning) (bool, *Warning) {
	sentinel := installed.Value == "" || installed.Value == model.VersionSentinel

	if sentinel {
		return remote.Value != "" && remote.Value != model.VersionSentinel, warning
	}

	if !version.Comparable(installed, remote) {
		return false, warnf(WarnProvenanceMismatch,
			"cannot order %s version %q against %s version %q; run update to force",
			remote.Provenance, remote.Value, installed.Provenance, installed.Value)
	}

	if installed.Provenance == version.ProvenanceCommit && remote.Provenance == version.ProvenanceCommit {
		// Hash ordering is meaningless; any drift counts as an update.
		return installed.Value != remote.Value, warning
	}

	if version.Compare(installed.Value, remote.Value) == version.Greater {
		// Can happen when a hash-derived version was once recorded; a
		// "downgrade" proposal would be nonsense.
		return false, warnf(WarnInstalledAhead,
			"installed version %q is ahead of remote %q", installed.Value, remote.Value)
	}

	return version.IsUpdateAvailable(remote.Value, installed.Value), warning
}

// ChangeBranch switches the tracked branch. Switching to the current branch
// is a no-op success with zero filesystem operations. On installer failure
// the store keeps the old branch and the error is fatal to the caller.
func (w *Workflow) ChangeBranch(ctx context.Context, id, newBranch string) (*model.Repository, error) {
	repo, err := w.store.GetRepo(id)
	if err != nil {
		return nil, err
	}

	if newBranch == "" {
		return nil, errors.New("branch name is required")
	}

	if newBranch == repo.Branch {
		return repo, nil
	}

	opCtx, cancel := context.WithTimeout(ctx, w.opTimeout)
	defer cancel()

	if err := w.installer.ChangeBranch(opCtx, repo, newBranch); err != nil {
		return nil, err
	}

	repo, err = w.store.UpdateRepo(repo.ID, store.RepoUpdate{Branch: &newBranch})
	if err != nil {
		return nil, err
	}

	// The branch changed under the cached responses.
	_ = w.source.ClearCache(repo.Owner, repo.Name)

	if installed, _, err := w.installedVersion(ctx, repo); err == nil {
		if updated, err := w.store.UpdateRepo(repo.ID, store.RepoUpdate{InstalledVersion: &installed.Value}); err == nil {
			repo = updated
		}
	}

	w.log.Info("branch changed", "repo", repo.FullName(), "branch", newBranch)

	return repo, nil
}

// UpdateRepository replaces the installed files with the tracked branch's
// current state, preserving activation state around the mutation:
// deactivate (verified) -> install -> reactivate (verified). A reactivation
// failure after a successful install is a success-with-warning, not a
// failure: re-running an expensive update would not fix an activation glitch.
func (w *Workflow) UpdateRepository(ctx context.Context, id string, force bool) (*UpdateResult, error) {
	repo, err := w.store.GetRepo(id)
	if err != nil {
		return nil, err
	}

	slug := w.effectiveSlug(repo)
	wasActive := w.registry.IsActive(slug)

	if wasActive {
		if err := w.registry.Deactivate(slug); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeactivationFailed, err)
		}

		// The call's own return value is not trusted; re-query.
		if w.registry.IsActive(slug) {
			return nil, fmt.Errorf("%w: still active after deactivate", ErrDeactivationFailed)
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, w.opTimeout)
	defer cancel()

	if force {
		if err := w.installer.UninstallFiles(opCtx, slug); err != nil {
			return nil, w.failInstall(repo, slug, wasActive, err)
		}
	}

	if err := w.installer.Install(opCtx, repo); err != nil {
		return nil, w.failInstall(repo, slug, wasActive, err)
	}

	result := &UpdateResult{WasActive: wasActive}

	if installed, _, err := w.installedVersion(ctx, repo); err == nil {
		repo, err = w.store.UpdateRepo(repo.ID, store.RepoUpdate{InstalledVersion: &installed.Value})
		if err != nil {
			return nil, err
		}
	}

	result.Repo = repo

	if wasActive {
		err := w.registry.Activate(slug)
		if err == nil && w.registry.IsActive(slug) {
			result.Reactivated = true
		} else {
			if err == nil {
				err = errors.New("inactive after activate")
			}

			result.Warning = warnf(WarnReactivationFailed,
				"updated but could not reactivate: %v", err)

			w.log.Warn("reactivation failed", "repo", repo.FullName(), "error", err)
		}
	}

	w.log.Info("repository updated", "repo", repo.FullName(), "branch", repo.Branch,
		"was_active", wasActive, "reactivated", result.Reactivated)

	return result, nil
}

// failInstall runs the best-effort reactivation owed after a post-deactivation
// install failure, then wraps the error so callers can tell the two failure
// points apart.
func (w *Workflow) failInstall(repo *model.Repository, slug string, wasActive bool, err error) error {
	wrapped := &InstallFailedError{Err: err, WasActive: wasActive}

	if wasActive {
		// The prior files are presumably intact, so try to put the
		// plugin back in service.
		if aerr := w.registry.Activate(slug); aerr == nil && w.registry.IsActive(slug) {
			wrapped.Reactivated = true
		}
	}

	w.log.Error("install failed", "repo", repo.FullName(), "was_active", wasActive,
		"reactivated", wrapped.Reactivated, "error", err)

	return wrapped
}

// DeleteRepository removes the tracked repository's data row, its files, or
// both. With DeleteBoth, a failure in either step never hides the other
// step's outcome: the result records exactly what was removed.
func (w *Workflow) DeleteRepository(ctx context.Context, id string, mode DeleteMode) (*DeleteResult, error) {
	repo, err := w.store.GetRepo(id)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{}

	var filesErr, dataErr error

	if mode == DeleteFilesOnly || mode == DeleteBoth {
		slug := w.effectiveSlug(repo)

		if w.registry.IsActive(slug) {
			if err := w.registry.Deactivate(slug); err != nil || w.registry.IsActive(slug) {
				return nil, fmt.Errorf("%w before delete: %v", ErrDeactivationFailed, err)
			}
		}

		opCtx, cancel := context.WithTimeout(ctx, w.opTimeout)
		defer cancel()

		filesErr = w.installer.UninstallFiles(opCtx, slug)
		result.FilesRemoved = filesErr == nil
	}

	if mode == DeleteDataOnly || mode == DeleteBoth {
		dataErr = w.store.DeleteRepo(repo.ID)
		result.DataRemoved = dataErr == nil

		if dataErr == nil {
			_ = w.source.ClearCache(repo.Owner, repo.Name)
		}
	}

	switch mode {
	case DeleteFilesOnly:
		if filesErr != nil {
			return nil, filesErr
		}
	case DeleteDataOnly:
		if dataErr != nil {
			return nil, dataErr
		}
	case DeleteBoth:
		switch {
		case filesErr != nil && dataErr != nil:
			return nil, fmt.Errorf("delete failed: files: %v; data: %v", filesErr, dataErr)
		case filesErr != nil:
			result.Warning = warnf(WarnPartialDelete, "data removed but files were not: %v", filesErr)
		case dataErr != nil:
			result.Warning = warnf(WarnPartialDelete, "files removed but data was not: %v", dataErr)
		}
	default:
		return nil, fmt.Errorf("unknown delete mode %q", mode)
	}

	w.log.Info("repository deleted", "repo", repo.FullName(), "mode", string(mode),
		"files_removed", result.FilesRemoved, "data_removed", result.DataRemoved)

	return result, nil
}

// GetStatus reports a repository's current installation/activation state.
// Installed state is looked up fresh; it can change outside this system.
func (w *Workflow) GetStatus(ctx context.Context, id string) (*Status, error) {
	repo, err := w.store.GetRepo(id)
	if err != nil {
		return nil, err
	}

	slug := w.effectiveSlug(repo)
	installed := w.registry.IsInstalled(slug)

	return &Status{
		Repo:         repo,
		Installed:    installed,
		Active:       installed && w.registry.IsActive(slug),
		FilesMissing: !installed,
	}, nil
}

// ListRepositories lists tracked repositories.
func (w *Workflow) ListRepositories(opts store.ListOptions) ([]model.Repository, error) {
	return w.store.ListRepos(opts)
}

// RemoteBranches lists the branches available on the remote.
func (w *Workflow) RemoteBranches(ctx context.Context, id string) ([]string, error) {
	repo, err := w.store.GetRepo(id)
	if err != nil {
		return nil, err
	}

	return w.source.Branches(ctx, repo.Owner, repo.Name)
}

// ClearSourceCache drops cached remote responses, optionally scoped.
func (w *Workflow) ClearSourceCache(owner, name string) error {
	return w.source.ClearCache(owner, name)
}

// SetGitHubToken persists the access token used for private clones and API
// calls. Components that read the token per operation pick it up immediately.
func (w *Workflow) SetGitHubToken(token string) error {
	if token == "" {
		return w.store.DeleteSetting(model.SettingGitHubToken)
	}

	return w.store.SetSetting(model.SettingGitHubToken, token)
}

// effectiveSlug returns the slug the repository's files live under. When the
// recorded slug does not resolve to an installed directory, the resolver
// heuristics re-derive it (archive extractions and manual renames produce
// e.g. "{name}-main"), and a successful re-derivation is persisted.
func (w *Workflow) effectiveSlug(repo *model.Repository) string {
	slug := repo.PluginSlug
	if slug == "" {
		slug = repo.Name
	}

	if w.registry.IsInstalled(slug) {
		return slug
	}

	resolved, err := host.ResolveSlug(w.installer.PluginDir(), repo.Name)
	if err != nil {
		return slug
	}

	if resolved != repo.PluginSlug {
		if updated, err := w.store.UpdateRepo(repo.ID, store.RepoUpdate{PluginSlug: &resolved}); err == nil {
			*repo = *updated
		}
	}

	return resolved
}

// installedVersion reads the installed copy's version: metadata header first,
// falling back to the checkout's HEAD commit when no header exists.
func (w *Workflow) installedVersion(ctx context.Context, repo *model.Repository) (version.Tagged, *Warning, error) {
	slug := w.effectiveSlug(repo)

	if v, err := w.registry.InstalledVersion(slug); err == nil {
		return version.Tagged{Value: v, Provenance: version.ProvenanceHeader}, nil, nil
	}

	sha, err := w.installer.InstalledCommit(ctx, slug)
	if err != nil {
		return version.Tagged{}, nil, fmt.Errorf("no readable version in %q: %w", slug, err)
	}

	warning := warnf(WarnVersionUnresolved,
		"no version header in installed copy; tracking HEAD commit %s", sha)

	return version.Tagged{Value: sha, Provenance: version.ProvenanceCommit}, warning, nil
}
