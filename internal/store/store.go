package store

import (
	"errors"

	"github.com/inovacc/plugr/internal/model"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("store: not found")

// ErrAlreadyExists is returned when an insert violates the (owner, name)
// uniqueness constraint. The constraint is enforced by the storage engine, not
// by an application-level pre-check, so concurrent duplicate inserts cannot
// both succeed.
var ErrAlreadyExists = errors.New("store: repository already exists")

// ListOptions filters and orders repository listings.
type ListOptions struct {
	// PrivateOnly / PublicOnly are mutually exclusive filters; both false
	// lists everything.
	PrivateOnly bool
	PublicOnly  bool

	// OrderBy is one of "created_at", "updated_at", "name". Empty means
	// "created_at".
	OrderBy string
	Desc    bool
}

// RepoUpdate is a partial field set applied to an existing repository.
// Nil fields are left untouched. ID and CreatedAt are immutable and therefore
// absent here; updated_at is always refreshed.
type RepoUpdate struct {
	Branch           *string
	PluginSlug       *string
	InstalledVersion *string
	RemoteVersion    *string
	Private          *bool
}

// Store defines the persistence operations used by the workflow.
type Store interface {
	Ping() error
	Close() error

	// Repository operations
	CreateRepo(repo *model.Repository) error
	GetRepo(id string) (*model.Repository, error)
	GetRepoByOwnerName(owner, name string) (*model.Repository, error)
	GetRepoBySlug(slug string) (*model.Repository, error)
	GetRepoByURL(sourceURL string) (*model.Repository, error)
	ListRepos(opts ListOptions) ([]model.Repository, error)
	UpdateRepo(id string, upd RepoUpdate) (*model.Repository, error)
	DeleteRepo(id string) error

	// Settings operations
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}
