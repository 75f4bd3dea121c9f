// Package git shells out to the git binary for the small set of operations
// the installer needs. It is kept behind the Backend interface so a
// library-based client could replace it without touching callers.
package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// IncompleteMarker is dropped into a target directory when a clone is
// interrupted, so later operations know the contents cannot be trusted.
const IncompleteMarker = ".plugr-incomplete"

// Backend is the narrow VCS surface consumed by the installer.
type Backend interface {
	// CloneShallow performs a single-branch depth-1 clone into dir.
	CloneShallow(ctx context.Context, cloneURL, branch, dir string) error

	// Fetch fetches the given branch from origin.
	Fetch(ctx context.Context, dir, branch string) error

	// Checkout switches the working tree to the given branch.
	Checkout(ctx context.Context, dir, branch string) error

	// Pull pulls the given branch from origin.
	Pull(ctx context.Context, dir, branch string) error

	// IsRepository reports whether dir is a git working tree.
	IsRepository(ctx context.Context, dir string) bool

	// HeadCommit returns the full SHA of HEAD in dir.
	HeadCommit(ctx context.Context, dir string) (string, error)
}

// Client runs git as a subprocess. All user-influenced values (branch names,
// URLs, directories) are passed as argv entries, never through a shell.
type Client struct {
	GitPath string
}

// NewClient resolves the git executable. Failing to find one is fatal before
// any filesystem mutation is attempted.
func NewClient() (*Client, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, ErrGitUnavailable
	}

	return &Client{GitPath: gitPath}, nil
}

func (c *Client) command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.GitPath, args...)

	if dir != "" {
		cmd.Dir = dir
	}

	return cmd
}

// run executes a git command and wraps any failure in a GitError.
func (c *Client) run(ctx context.Context, dir string, args ...string) error {
	cmd := c.command(ctx, dir, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return NewGitError(args, string(output), err)
	}

	return nil
}

// CloneShallow clones a single branch at depth 1. If the context is canceled
// mid-clone, the partially written directory is marked incomplete rather than
// left looking like a healthy checkout.
func (c *Client) CloneShallow(ctx context.Context, cloneURL, branch, dir string) error {
	err := c.run(ctx, "", "clone", "--single-branch", "--branch", branch, "--depth", "1", cloneURL, dir)
	if err != nil {
		if ctx.Err() != nil {
			markIncomplete(dir)
		}

		return err
	}

	return nil
}

// Fetch fetches the branch from origin.
func (c *Client) Fetch(ctx context.Context, dir, branch string) error {
	return c.run(ctx, dir, "fetch", "origin", branch)
}

// Checkout switches to the branch.
func (c *Client) Checkout(ctx context.Context, dir, branch string) error {
	return c.run(ctx, dir, "checkout", branch)
}

// Pull pulls the branch from origin.
func (c *Client) Pull(ctx context.Context, dir, branch string) error {
	return c.run(ctx, dir, "pull", "origin", branch)
}

// IsRepository checks if dir is a git working tree.
func (c *Client) IsRepository(ctx context.Context, dir string) bool {
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return false
	}

	return c.command(ctx, dir, "rev-parse", "--git-dir").Run() == nil
}

// HeadCommit returns the SHA of HEAD.
func (c *Client) HeadCommit(ctx context.Context, dir string) (string, error) {
	cmd := c.command(ctx, dir, "rev-parse", "HEAD")

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

func markIncomplete(dir string) {
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return
	}

	_ = os.WriteFile(filepath.Join(dir, IncompleteMarker), []byte("interrupted clone\n"), 0o600)
}

// IsIncomplete reports whether dir carries the interrupted-clone marker.
func IsIncomplete(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, IncompleteMarker))
	return err == nil
}
