package installer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovacc/plugr/internal/git"
	"github.com/inovacc/plugr/internal/model"
)

// fakeVCS records operations and materializes clone targets on disk.
type fakeVCS struct {
	ops        []string
	cloneErr   error
	fetchErr   error
	repository bool
	cloneNoDir bool // simulate a clone that reports success but writes nothing
	lastURL    string
}

func (f *fakeVCS) CloneShallow(_ context.Context, cloneURL, branch, dir string) error {
	f.ops = append(f.ops, "clone "+branch)
	f.lastURL = cloneURL

	if f.cloneErr != nil {
		return f.cloneErr
	}

	if !f.cloneNoDir {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return nil
}

func (f *fakeVCS) Fetch(_ context.Context, _, branch string) error {
	f.ops = append(f.ops, "fetch "+branch)
	return f.fetchErr
}

func (f *fakeVCS) Checkout(_ context.Context, _, branch string) error {
	f.ops = append(f.ops, "checkout "+branch)
	return nil
}

func (f *fakeVCS) Pull(_ context.Context, _, branch string) error {
	f.ops = append(f.ops, "pull "+branch)
	return nil
}

func (f *fakeVCS) IsRepository(_ context.Context, _ string) bool {
	return f.repository
}

func (f *fakeVCS) HeadCommit(_ context.Context, _ string) (string, error) {
	return "abcdef1234567890abcdef1234567890abcdef12", nil
}

var _ git.Backend = (*fakeVCS)(nil)

func newTestInstaller(t *testing.T, vcs *fakeVCS) *Installer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(vcs, t.TempDir(), nil, logger)
}

func repoFixture() *model.Repository {
	return &model.Repository{
		ID:         "id-1",
		Owner:      "acme",
		Name:       "widget",
		Branch:     "main",
		PluginSlug: "widget",
	}
}

func writeGitConfig(t *testing.T, dir, remoteURL string) {
	t.Helper()

	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0o755))

	config := "[core]\n\trepositoryformatversion = 0\n[remote \"origin\"]\n\turl = " + remoteURL + "\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n"
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "config"), []byte(config), 0o644))
}

func TestInstallClonesWhenAbsent(t *testing.T) {
	vcs := &fakeVCS{}
	inst := newTestInstaller(t, vcs)

	require.NoError(t, inst.Install(context.Background(), repoFixture()))

	assert.Equal(t, []string{"clone main"}, vcs.ops)
	assert.Equal(t, "https://github.com/acme/widget.git", vcs.lastURL)
}

func TestInstallPrivateUsesAuthenticatedURL(t *testing.T) {
	vcs := &fakeVCS{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inst := New(vcs, t.TempDir(), func() string { return "tok123" }, logger)

	repo := repoFixture()
	repo.Private = true

	require.NoError(t, inst.Install(context.Background(), repo))
	assert.Contains(t, vcs.lastURL, "x-access-token:tok123@github.com")
}

func TestInstallUpdatesManagedCheckout(t *testing.T) {
	vcs := &fakeVCS{repository: true}
	inst := newTestInstaller(t, vcs)

	repo := repoFixture()
	dir := inst.TargetDir(repo)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeGitConfig(t, dir, "https://github.com/acme/widget.git")

	require.NoError(t, inst.Install(context.Background(), repo))

	assert.Equal(t, []string{"fetch main", "checkout main", "pull main"}, vcs.ops)
}

func TestInstallConflictOnUnmanagedDir(t *testing.T) {
	vcs := &fakeVCS{repository: false}
	inst := newTestInstaller(t, vcs)

	repo := repoFixture()
	require.NoError(t, os.MkdirAll(inst.TargetDir(repo), 0o755))

	err := inst.Install(context.Background(), repo)
	assert.ErrorIs(t, err, ErrTargetConflict)
	assert.Empty(t, vcs.ops, "no VCS mutation on conflict")
}

func TestInstallConflictOnForeignRemote(t *testing.T) {
	vcs := &fakeVCS{repository: true}
	inst := newTestInstaller(t, vcs)

	repo := repoFixture()
	dir := inst.TargetDir(repo)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeGitConfig(t, dir, "https://github.com/somebody/else.git")

	err := inst.Install(context.Background(), repo)
	assert.ErrorIs(t, err, ErrTargetConflict)
}

func TestInstallWipesIncompleteClone(t *testing.T) {
	vcs := &fakeVCS{}
	inst := newTestInstaller(t, vcs)

	repo := repoFixture()
	dir := inst.TargetDir(repo)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, git.IncompleteMarker), []byte("interrupted clone\n"), 0o600))

	require.NoError(t, inst.Install(context.Background(), repo))

	assert.Equal(t, []string{"clone main"}, vcs.ops, "incomplete dir is wiped and recloned")
}

func TestUninstallFiles(t *testing.T) {
	inst := newTestInstaller(t, &fakeVCS{})

	dir := filepath.Join(inst.PluginDir(), "widget")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	require.NoError(t, inst.UninstallFiles(context.Background(), "widget"))

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestUninstallRefusesUnsafePaths(t *testing.T) {
	inst := newTestInstaller(t, &fakeVCS{})

	assert.ErrorIs(t, inst.UninstallFiles(context.Background(), ""), ErrUnsafePath)
	assert.ErrorIs(t, inst.UninstallFiles(context.Background(), "."), ErrUnsafePath)
	assert.ErrorIs(t, inst.UninstallFiles(context.Background(), ".."), ErrUnsafePath)
	assert.ErrorIs(t, inst.UninstallFiles(context.Background(), "../outside"), ErrUnsafePath)
}

func TestChangeBranchFreshClone(t *testing.T) {
	vcs := &fakeVCS{}
	inst := newTestInstaller(t, vcs)

	repo := repoFixture()
	dir := inst.TargetDir(repo)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "old"), 0o755))

	require.NoError(t, inst.ChangeBranch(context.Background(), repo, "develop"))

	assert.Equal(t, []string{"clone develop"}, vcs.ops)

	_, err := os.Stat(filepath.Join(dir, "old"))
	assert.True(t, os.IsNotExist(err), "old checkout is removed before the fresh clone")
}

func TestChangeBranchCloneFailed(t *testing.T) {
	vcs := &fakeVCS{cloneNoDir: true}
	inst := newTestInstaller(t, vcs)

	err := inst.ChangeBranch(context.Background(), repoFixture(), "develop")
	assert.ErrorIs(t, err, ErrCloneFailed)
}

func TestChangeBranchPropagatesCloneError(t *testing.T) {
	cloneErr := errors.New("remote ref not found")
	vcs := &fakeVCS{cloneErr: cloneErr}
	inst := newTestInstaller(t, vcs)

	err := inst.ChangeBranch(context.Background(), repoFixture(), "ghost")
	assert.ErrorIs(t, err, cloneErr)
}
