// Package host models the plugin host: the directory of installed plugins,
// their metadata headers, and their activation state. The workflow treats
// activation-state queries as authoritative and re-verifies after every
// activate/deactivate call, so nothing here is cached across calls.
package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Registry is the plugin host surface consumed by the workflow.
type Registry interface {
	// IsInstalled reports whether the slug resolves to an installed plugin.
	IsInstalled(slug string) bool

	// IsActive reports whether the plugin is currently active.
	IsActive(slug string) bool

	// Activate marks the plugin active. Fails if it is not installed.
	Activate(slug string) error

	// Deactivate marks the plugin inactive.
	Deactivate(slug string) error

	// InstalledVersion reads the version from the installed copy's
	// metadata header.
	InstalledVersion(slug string) (string, error)
}

// activeStateFile records which plugins are active, relative to the plugin
// root. Kept as a dotfile so it never collides with a plugin slug.
const activeStateFile = ".active.json"

// DirRegistry implements Registry over a plugins directory.
type DirRegistry struct {
	PluginDir string
	log       *slog.Logger
}

var _ Registry = (*DirRegistry)(nil)

// NewDirRegistry creates a registry rooted at pluginDir, creating the
// directory if needed.
func NewDirRegistry(pluginDir string, logger *slog.Logger) (*DirRegistry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(pluginDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating plugin directory: %w", err)
	}

	return &DirRegistry{PluginDir: pluginDir, log: logger}, nil
}

// PluginPath returns the directory an installed slug resolves to.
func (r *DirRegistry) PluginPath(slug string) string {
	return filepath.Join(r.PluginDir, slug)
}

// IsInstalled reports whether the slug's directory exists and contains a
// plugin file. State is read from disk every call; it can change outside this
// process.
func (r *DirRegistry) IsInstalled(slug string) bool {
	if slug == "" {
		return false
	}

	fi, err := os.Stat(r.PluginPath(slug))
	if err != nil || !fi.IsDir() {
		return false
	}

	return true
}

// IsActive reports whether the slug is in the active set.
func (r *DirRegistry) IsActive(slug string) bool {
	active, err := r.readActive()
	if err != nil {
		r.log.Warn("reading activation state", "error", err)
		return false
	}

	return active[slug]
}

// Activate marks the plugin active and persists the state.
func (r *DirRegistry) Activate(slug string) error {
	if !r.IsInstalled(slug) {
		return fmt.Errorf("cannot activate %q: not installed", slug)
	}

	active, err := r.readActive()
	if err != nil {
		return err
	}

	active[slug] = true

	if err := r.writeActive(active); err != nil {
		return err
	}

	r.log.Info("plugin activated", "slug", slug)

	return nil
}

// Deactivate marks the plugin inactive and persists the state.
func (r *DirRegistry) Deactivate(slug string) error {
	active, err := r.readActive()
	if err != nil {
		return err
	}

	delete(active, slug)

	if err := r.writeActive(active); err != nil {
		return err
	}

	r.log.Info("plugin deactivated", "slug", slug)

	return nil
}

// InstalledVersion reads the version header from the installed copy.
func (r *DirRegistry) InstalledVersion(slug string) (string, error) {
	path, err := FindPluginFile(r.PluginPath(slug))
	if err != nil {
		return "", err
	}

	meta, err := ReadMetadata(path)
	if err != nil {
		return "", err
	}

	return meta.Version, nil
}

func (r *DirRegistry) readActive() (map[string]bool, error) {
	data, err := os.ReadFile(filepath.Join(r.PluginDir, activeStateFile))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]bool{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading activation state: %w", err)
	}

	var slugs []string
	if err := json.Unmarshal(data, &slugs); err != nil {
		return nil, fmt.Errorf("parsing activation state: %w", err)
	}

	active := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		active[s] = true
	}

	return active, nil
}

func (r *DirRegistry) writeActive(active map[string]bool) error {
	slugs := make([]string, 0, len(active))
	for s, on := range active {
		if on {
			slugs = append(slugs, s)
		}
	}

	sort.Strings(slugs)

	data, err := json.MarshalIndent(slugs, "", "  ")
	if err != nil {
		return err
	}

	tmp := filepath.Join(r.PluginDir, activeStateFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing activation state: %w", err)
	}

	return os.Rename(tmp, filepath.Join(r.PluginDir, activeStateFile))
}
