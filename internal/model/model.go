package model

import "time"

// VersionSentinel marks an unknown or not-yet-installed version. It is never
// treated as a real version beyond comparing lower than everything else.
const VersionSentinel = "0.0.0"

// Repository is a GitHub repository tracked as an installable plugin.
type Repository struct {
	// ID is the unique identifier, assigned at creation
	ID string `json:"id"`

	// SourceURL is the canonical remote URL (https://github.com/{owner}/{name})
	SourceURL string `json:"source_url"`

	// Owner and Name are the parsed URL components; the pair is unique
	Owner string `json:"owner"`
	Name  string `json:"name"`

	// Branch is the currently tracked branch
	Branch string `json:"branch"`

	// PluginSlug locates the installed files under the plugin directory
	PluginSlug string `json:"plugin_slug"`

	// InstalledVersion is read from the local copy's metadata header
	InstalledVersion string `json:"installed_version"`

	// RemoteVersion is the last observed version on the remote source
	RemoteVersion string `json:"remote_version"`

	// Private governs whether authenticated clone/API calls are used
	Private bool `json:"private"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSentinelVersion reports whether the installed version is still unknown.
func (r *Repository) HasSentinelVersion() bool {
	return r.InstalledVersion == "" || r.InstalledVersion == VersionSentinel
}

// FullName returns the owner/name pair as displayed to the administrator.
func (r *Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// Setting is a key/value row in the settings table.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Well-known settings keys.
const (
	SettingGitHubToken = "github_token"
	SettingAdminToken  = "admin_token"
	SettingPluginDir   = "plugin_dir"
)
