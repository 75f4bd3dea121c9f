package giturl

import (
	"fmt"
	"net/url"
	"strings"
)

const defaultHost = "github.com"

// Repository represents a Git repository with owner, name, and host
type Repository struct {
	Owner string
	Name  string
	Host  string
}

// CloneURL returns the https clone URL for the repository.
func (r *Repository) CloneURL() string {
	return fmt.Sprintf("https://%s/%s/%s.git", r.Host, r.Owner, r.Name)
}

// AuthenticatedCloneURL returns a clone URL with the token embedded as basic
// auth, for cloning private repositories. The token never ends up in the
// stored source URL.
func (r *Repository) AuthenticatedCloneURL(token string) string {
	if token == "" {
		return r.CloneURL()
	}

	u := &url.URL{
		Scheme: "https",
		User:   url.UserPassword("x-access-token", token),
		Host:   r.Host,
		Path:   fmt.Sprintf("/%s/%s.git", r.Owner, r.Name),
	}

	return u.String()
}

// CanonicalURL returns the canonical browse URL (no .git suffix).
func (r *Repository) CanonicalURL() string {
	return fmt.Sprintf("https://%s/%s/%s", r.Host, r.Owner, r.Name)
}

// FullName returns the "owner/repo" string
func (r *Repository) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// ParseRepository parses a repository string into a Repository struct.
// Supports multiple formats:
//   - "owner/repo"
//   - "https://github.com/owner/repo"
//   - "https://github.com/owner/repo/blob/main/file.go#L10"
//   - "git@github.com:owner/repo.git"
//   - "ssh://git@github.com/owner/repo.git"
func ParseRepository(arg string) (*Repository, error) {
	// Check if it's a URL (contains ":" but not a Windows path)
	isURL := strings.Contains(arg, ":") && !strings.Contains(arg, "\\")

	if isURL {
		return parseRepositoryFromURL(arg)
	}

	if strings.Contains(arg, "/") {
		return parseRepositoryFromFullName(arg)
	}

	return nil, fmt.Errorf("invalid repository %q: expected owner/repo or a URL", arg)
}

func parseRepositoryFromURL(rawURL string) (*Repository, error) {
	u, err := Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	// Simplify the URL to strip extra path segments
	u = Simplify(u)

	owner, name, err := ExtractOwnerRepo(u)
	if err != nil {
		return nil, fmt.Errorf("invalid repository URL %q: %w", rawURL, err)
	}

	host := u.Hostname()
	if host == "" {
		host = defaultHost
	}

	return &Repository{
		Owner: owner,
		Name:  name,
		Host:  strings.ToLower(strings.TrimPrefix(host, "www.")),
	}, nil
}

func parseRepositoryFromFullName(fullName string) (*Repository, error) {
	// Handle HOST/OWNER/REPO format
	parts := strings.Split(fullName, "/")
	switch len(parts) {
	case 2:
		return &Repository{
			Owner: parts[0],
			Name:  parts[1],
			Host:  defaultHost,
		}, nil
	case 3:
		return &Repository{
			Owner: parts[1],
			Name:  parts[2],
			Host:  strings.ToLower(strings.TrimPrefix(parts[0], "www.")),
		}, nil
	default:
		return nil, fmt.Errorf("invalid repository format %q: expected owner/repo or host/owner/repo", fullName)
	}
}
