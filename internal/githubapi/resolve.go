package githubapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inovacc/plugr/internal/host"
	"github.com/inovacc/plugr/internal/version"
)

// maxHeaderScanFiles caps how many root files are fetched when hunting for a
// version header, so a huge repository root doesn't turn one check into
// dozens of API calls.
const maxHeaderScanFiles = 5

// conventionalFiles are tried directly when the root scan finds nothing.
func conventionalFiles(name string) []string {
	return []string{
		name + ".php",
		"plugin.php",
		"index.php",
		"main.php",
	}
}

// ResolveVersion determines the remote version of a repository branch via the
// fallback chain:
//
//	(a) scan root source files for a version header
//	(b) try a fixed list of conventional filenames
//	(c) latest release tag, stripped of a leading "v"
//	(d) first 7 characters of the latest commit SHA
//
// Each result is tagged with its provenance, since hash-derived versions do
// not order meaningfully against header or release versions. Rate limiting
// aborts the chain immediately; other failures fall through to the next step,
// and an exhausted chain fails with ErrVersionUndeterminable.
func (c *Client) ResolveVersion(ctx context.Context, owner, name, branch string) (version.Tagged, error) {
	key := cacheKey(owner, name, "resolve", branch)

	var cached version.Tagged
	if c.cache.get(key, &cached) {
		return cached, nil
	}

	resolved, err := c.resolveVersion(ctx, owner, name, branch)
	if err != nil {
		return version.Tagged{}, err
	}

	c.cache.put(key, resolved)

	return resolved, nil
}

func (c *Client) resolveVersion(ctx context.Context, owner, name, branch string) (version.Tagged, error) {
	// (a) scan root directory source files
	entries, err := c.RootEntries(ctx, owner, name, branch)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			return version.Tagged{}, err
		}

		c.log.Debug("root scan skipped", "repo", owner+"/"+name, "error", err)
	}

	scanned := 0

	for _, entry := range entries {
		if !host.HasSourceExtension(entry) {
			continue
		}

		if scanned >= maxHeaderScanFiles {
			break
		}

		scanned++

		if v, err := c.headerVersion(ctx, owner, name, entry, branch); err == nil {
			return v, nil
		} else if errors.Is(err, ErrRateLimited) {
			return version.Tagged{}, err
		}
	}

	// (b) conventional filenames
	for _, path := range conventionalFiles(name) {
		if v, err := c.headerVersion(ctx, owner, name, path, branch); err == nil {
			return v, nil
		} else if errors.Is(err, ErrRateLimited) {
			return version.Tagged{}, err
		}
	}

	// (c) latest release tag
	tag, err := c.LatestReleaseTag(ctx, owner, name)
	if err == nil && tag != "" {
		return version.Tagged{
			Value:      strings.TrimPrefix(tag, "v"),
			Provenance: version.ProvenanceRelease,
		}, nil
	}

	if errors.Is(err, ErrRateLimited) {
		return version.Tagged{}, err
	}

	// (d) abbreviated commit SHA
	sha, err := c.LatestCommitSHA(ctx, owner, name, branch)
	if err == nil && len(sha) >= 7 {
		return version.Tagged{
			Value:      sha[:7],
			Provenance: version.ProvenanceCommit,
		}, nil
	}

	if errors.Is(err, ErrRateLimited) {
		return version.Tagged{}, err
	}

	return version.Tagged{}, fmt.Errorf("%w: %s/%s@%s", ErrVersionUndeterminable, owner, name, branch)
}

func (c *Client) headerVersion(ctx context.Context, owner, name, path, branch string) (version.Tagged, error) {
	data, err := c.FileContents(ctx, owner, name, path, branch)
	if err != nil {
		return version.Tagged{}, err
	}

	v, ok := host.ExtractVersion(data)
	if !ok {
		return version.Tagged{}, ErrNotFound
	}

	return version.Tagged{Value: v, Provenance: version.ProvenanceHeader}, nil
}
