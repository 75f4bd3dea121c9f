// Package githubapi is a thin, cache-aware read client over the GitHub REST
// API, used to observe remote plugin repositories. All reads go through the
// TTL cache; failures surface as the typed errors in errors.go.
package githubapi

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/go-github/v82/github"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub REST client with response caching.
type Client struct {
	gh    *github.Client
	cache *Cache
	log   *slog.Logger
}

// NewClient creates a client. An empty token is not an error: it restricts
// access to public repositories and lowers the rate-limit ceiling.
func NewClient(ctx context.Context, token string, cache *Cache, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	var gh *github.Client

	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		gh = github.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		gh = github.NewClient(nil)
	}

	return &Client{gh: gh, cache: cache, log: logger}
}

// NewClientWithGitHub wires a prebuilt GitHub client. Used by tests to point
// at a local server.
func NewClientWithGitHub(gh *github.Client, cache *Cache, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{gh: gh, cache: cache, log: logger}
}

// ClearCache drops cached responses, optionally scoped to one repository.
func (c *Client) ClearCache(owner, name string) error {
	return c.cache.Clear(owner, name)
}

// Branches lists the repository's branch names.
func (c *Client) Branches(ctx context.Context, owner, name string) ([]string, error) {
	key := cacheKey(owner, name, "branches")

	var cached []string
	if c.cache.get(key, &cached) {
		return cached, nil
	}

	opts := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var branches []string

	for {
		page, resp, err := c.gh.Repositories.ListBranches(ctx, owner, name, opts)
		if err != nil {
			return nil, mapError("list branches", resp, err)
		}

		for _, b := range page {
			branches = append(branches, b.GetName())
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	c.cache.put(key, branches)

	return branches, nil
}

// LatestReleaseTag returns the tag of the latest published release, or
// ErrNoRelease when the repository has none.
func (c *Client) LatestReleaseTag(ctx context.Context, owner, name string) (string, error) {
	key := cacheKey(owner, name, "release")

	var cached string
	if c.cache.get(key, &cached) {
		return cached, nil
	}

	release, resp, err := c.gh.Repositories.GetLatestRelease(ctx, owner, name)
	if err != nil {
		mapped := mapError("latest release", resp, err)
		if errors.Is(mapped, ErrNotFound) {
			// The repository exists; it just has no releases.
			return "", ErrNoRelease
		}

		return "", mapped
	}

	tag := release.GetTagName()
	c.cache.put(key, tag)

	return tag, nil
}

// LatestCommitSHA returns the SHA of the branch head.
func (c *Client) LatestCommitSHA(ctx context.Context, owner, name, branch string) (string, error) {
	key := cacheKey(owner, name, "commit", branch)

	var cached string
	if c.cache.get(key, &cached) {
		return cached, nil
	}

	sha, resp, err := c.gh.Repositories.GetCommitSHA1(ctx, owner, name, branch, "")
	if err != nil {
		return "", mapError("latest commit", resp, err)
	}

	c.cache.put(key, sha)

	return sha, nil
}

// FileContents fetches a file from the repository at the given branch.
func (c *Client) FileContents(ctx context.Context, owner, name, path, branch string) ([]byte, error) {
	key := cacheKey(owner, name, "file", branch, path)

	var cached []byte
	if c.cache.get(key, &cached) {
		return cached, nil
	}

	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, name, path,
		&github.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		return nil, mapError("file contents", resp, err)
	}

	if file == nil {
		return nil, ErrNotFound
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, &UpstreamError{Op: "file contents", Err: err}
	}

	data := []byte(content)
	c.cache.put(key, data)

	return data, nil
}

// RootEntries lists the file names at the repository root.
func (c *Client) RootEntries(ctx context.Context, owner, name, branch string) ([]string, error) {
	key := cacheKey(owner, name, "root", branch)

	var cached []string
	if c.cache.get(key, &cached) {
		return cached, nil
	}

	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, owner, name, "",
		&github.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		return nil, mapError("root entries", resp, err)
	}

	var names []string

	if file != nil {
		names = append(names, file.GetName())
	}

	for _, entry := range dir {
		if entry.GetType() == "file" {
			names = append(names, entry.GetName())
		}
	}

	c.cache.put(key, names)

	return names, nil
}
