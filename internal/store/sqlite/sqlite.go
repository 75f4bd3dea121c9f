package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inovacc/plugr/internal/model"
	"github.com/inovacc/plugr/internal/store"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't handle multiple writers well
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	migrator := NewMigrator(db)
	if err := migrator.MigrateUp(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks if the database is accessible.
func (s *Store) Ping() error {
	return s.db.Ping()
}

const repoColumns = `id, source_url, owner, name, branch, plugin_slug,
	installed_version, remote_version, private, created_at, updated_at`

// CreateRepo inserts a new tracked repository. The (owner, name) uniqueness
// constraint lives in the schema; a violation surfaces as ErrAlreadyExists
// even when two identical inserts race.
func (s *Store) CreateRepo(repo *model.Repository) error {
	if repo.ID == "" {
		return errors.New("repository id is required")
	}

	if repo.Branch == "" {
		return errors.New("repository branch is required")
	}

	now := time.Now().UTC()
	if repo.CreatedAt.IsZero() {
		repo.CreatedAt = now
	}

	repo.UpdatedAt = now

	if repo.InstalledVersion == "" {
		repo.InstalledVersion = model.VersionSentinel
	}

	if repo.RemoteVersion == "" {
		repo.RemoteVersion = model.VersionSentinel
	}

	_, err := s.db.Exec(`
		INSERT INTO repositories (`+repoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		repo.ID, repo.SourceURL, repo.Owner, repo.Name, repo.Branch,
		repo.PluginSlug, repo.InstalledVersion, repo.RemoteVersion,
		boolToInt(repo.Private), repo.CreatedAt, repo.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}

		return fmt.Errorf("inserting repository: %w", err)
	}

	return nil
}

// GetRepo looks up a repository by id.
func (s *Store) GetRepo(id string) (*model.Repository, error) {
	return s.getRepoWhere("id = ?", id)
}

// GetRepoByOwnerName looks up a repository by its unique (owner, name) pair.
func (s *Store) GetRepoByOwnerName(owner, name string) (*model.Repository, error) {
	return s.getRepoWhere("owner = ? AND name = ?", owner, name)
}

// GetRepoBySlug looks up a repository by its plugin slug.
func (s *Store) GetRepoBySlug(slug string) (*model.Repository, error) {
	return s.getRepoWhere("plugin_slug = ?", slug)
}

// GetRepoByURL looks up a repository by its canonical source URL.
func (s *Store) GetRepoByURL(sourceURL string) (*model.Repository, error) {
	return s.getRepoWhere("source_url = ?", sourceURL)
}

func (s *Store) getRepoWhere(where string, args ...any) (*model.Repository, error) {
	row := s.db.QueryRow(`SELECT `+repoColumns+` FROM repositories WHERE `+where, args...)

	repo, err := scanRepo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("querying repository: %w", err)
	}

	return repo, nil
}

// ListRepos returns tracked repositories, optionally filtered by privacy.
func (s *Store) ListRepos(opts store.ListOptions) ([]model.Repository, error) {
	query := `SELECT ` + repoColumns + ` FROM repositories`

	var args []any

	switch {
	case opts.PrivateOnly:
		query += ` WHERE private = 1`
	case opts.PublicOnly:
		query += ` WHERE private = 0`
	}

	orderBy := "created_at"
	switch opts.OrderBy {
	case "", "created_at":
	case "updated_at", "name", "owner":
		orderBy = opts.OrderBy
	default:
		return nil, fmt.Errorf("unsupported order column %q", opts.OrderBy)
	}

	query += ` ORDER BY ` + orderBy
	if opts.Desc {
		query += ` DESC`
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var repos []model.Repository

	for rows.Next() {
		repo, err := scanRepo(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning repository: %w", err)
		}

		repos = append(repos, *repo)
	}

	return repos, rows.Err()
}

// UpdateRepo applies a partial update and refreshes updated_at. The id and
// created_at columns are never touched.
func (s *Store) UpdateRepo(id string, upd store.RepoUpdate) (*model.Repository, error) {
	var (
		sets []string
		args []any
	)

	if upd.Branch != nil {
		if *upd.Branch == "" {
			return nil, errors.New("branch cannot be empty")
		}

		sets = append(sets, "branch = ?")
		args = append(args, *upd.Branch)
	}

	if upd.PluginSlug != nil {
		sets = append(sets, "plugin_slug = ?")
		args = append(args, *upd.PluginSlug)
	}

	if upd.InstalledVersion != nil {
		sets = append(sets, "installed_version = ?")
		args = append(args, normalizeVersion(*upd.InstalledVersion))
	}

	if upd.RemoteVersion != nil {
		sets = append(sets, "remote_version = ?")
		args = append(args, normalizeVersion(*upd.RemoteVersion))
	}

	if upd.Private != nil {
		sets = append(sets, "private = ?")
		args = append(args, boolToInt(*upd.Private))
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id)

	res, err := s.db.Exec(`UPDATE repositories SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("updating repository: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetRepo(id)
}

// DeleteRepo removes the row only; on-disk files are the installer's concern.
func (s *Store) DeleteRepo(id string) error {
	res, err := s.db.Exec(`DELETE FROM repositories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting repository: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// GetSetting returns a settings value, or ErrNotFound.
func (s *Store) GetSetting(key string) (string, error) {
	var value string

	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}

	if err != nil {
		return "", fmt.Errorf("querying setting %q: %w", key, err)
	}

	return value, nil
}

// SetSetting inserts or replaces a settings value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving setting %q: %w", key, err)
	}

	return nil
}

// DeleteSetting removes a settings value if present.
func (s *Store) DeleteSetting(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting setting %q: %w", key, err)
	}

	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRepo(row scannable) (*model.Repository, error) {
	var (
		repo    model.Repository
		private int
	)

	err := row.Scan(
		&repo.ID, &repo.SourceURL, &repo.Owner, &repo.Name, &repo.Branch,
		&repo.PluginSlug, &repo.InstalledVersion, &repo.RemoteVersion,
		&private, &repo.CreatedAt, &repo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	repo.Private = private != 0

	return &repo, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

func normalizeVersion(v string) string {
	if v == "" {
		return model.VersionSentinel
	}

	return v
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
