package git

import (
	"errors"
	"testing"
)

func TestGitErrorMessage(t *testing.T) {
	err := NewGitError([]string{"clone", "url", "dir"}, "fatal: Repository not found\n", errors.New("exit status 128"))

	want := "git clone url dir failed: fatal: Repository not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if !IsRepoNotFound(err) {
		t.Error("IsRepoNotFound should match 'Repository not found' stderr")
	}

	if IsAuthRequired(err) {
		t.Error("IsAuthRequired should not match")
	}
}

func TestGitErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := NewGitError([]string{"pull"}, "", inner)

	if !errors.Is(err, inner) {
		t.Error("GitError should unwrap to the underlying error")
	}
}

func TestContainsErrorCaseInsensitive(t *testing.T) {
	err := NewGitError([]string{"pull"}, "FATAL: NOT A GIT REPOSITORY", errors.New("exit status 128"))

	if !IsNotRepository(err) {
		t.Error("matching should be case-insensitive")
	}
}
