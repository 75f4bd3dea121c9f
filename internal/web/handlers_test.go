package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovacc/plugr/internal/core"
	"github.com/inovacc/plugr/internal/githubapi"
	"github.com/inovacc/plugr/internal/model"
	"github.com/inovacc/plugr/internal/store"
)

type fakeService struct {
	repos     map[string]*model.Repository
	addErr    error
	checkErr  error
	updateRes *core.UpdateResult
	token     string
	cleared   bool
}

func newFakeService() *fakeService {
	return &fakeService{
		repos: map[string]*model.Repository{
			"id-1": {ID: "id-1", Owner: "acme", Name: "widget", Branch: "main", PluginSlug: "widget"},
		},
	}
}

func (f *fakeService) AddRepository(_ context.Context, rawURL, branch string, private bool) (*model.Repository, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}

	return &model.Repository{ID: "id-new", SourceURL: rawURL, Branch: branch, Private: private}, nil
}

func (f *fakeService) CheckVersion(_ context.Context, id string) (*core.CheckResult, error) {
	if f.checkErr != nil {
		return nil, f.checkErr
	}

	repo, ok := f.repos[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	return &core.CheckResult{Repo: repo, UpdateAvailable: true}, nil
}

func (f *fakeService) ChangeBranch(_ context.Context, id, newBranch string) (*model.Repository, error) {
	repo, ok := f.repos[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	repo.Branch = newBranch

	return repo, nil
}

func (f *fakeService) UpdateRepository(_ context.Context, id string, _ bool) (*core.UpdateResult, error) {
	if _, ok := f.repos[id]; !ok {
		return nil, store.ErrNotFound
	}

	if f.updateRes != nil {
		return f.updateRes, nil
	}

	return &core.UpdateResult{Repo: f.repos[id]}, nil
}

func (f *fakeService) DeleteRepository(_ context.Context, id string, _ core.DeleteMode) (*core.DeleteResult, error) {
	if _, ok := f.repos[id]; !ok {
		return nil, store.ErrNotFound
	}

	delete(f.repos, id)

	return &core.DeleteResult{FilesRemoved: true, DataRemoved: true}, nil
}

func (f *fakeService) GetStatus(_ context.Context, id string) (*core.Status, error) {
	repo, ok := f.repos[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	return &core.Status{Repo: repo, Installed: true, Active: false}, nil
}

func (f *fakeService) ListRepositories(_ store.ListOptions) ([]model.Repository, error) {
	out := make([]model.Repository, 0, len(f.repos))
	for _, r := range f.repos {
		out = append(out, *r)
	}

	return out, nil
}

func (f *fakeService) RemoteBranches(_ context.Context, id string) ([]string, error) {
	if _, ok := f.repos[id]; !ok {
		return nil, store.ErrNotFound
	}

	return []string{"main", "develop"}, nil
}

func (f *fakeService) ClearSourceCache(_, _ string) error {
	f.cleared = true
	return nil
}

func (f *fakeService) SetGitHubToken(token string) error {
	f.token = token
	return nil
}

var _ Service = (*fakeService)(nil)

func newTestServer(svc Service, adminToken string) http.Handler {
	cfg := DefaultConfig()
	cfg.AdminToken = adminToken

	return New(cfg, svc).Handler()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	return resp
}

func TestHealthNeedsNoAuth(t *testing.T) {
	h := newTestServer(newFakeService(), "secret")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	h := newTestServer(newFakeService(), "secret")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/repos", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	h := newTestServer(newFakeService(), "secret")

	req := httptest.NewRequest(http.MethodGet, "/api/repos", nil)
	req.Header.Set("Authorization", "Bearer secret")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)
}

func TestAddRepo(t *testing.T) {
	h := newTestServer(newFakeService(), "")

	body, _ := json.Marshal(addRepoRequest{URL: "https://github.com/acme/gadget", Branch: "main"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/repos", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, decode(t, rec).Success)
}

func TestAddRepoRequiresURL(t *testing.T) {
	h := newTestServer(newFakeService(), "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/repos", bytes.NewReader([]byte(`{}`))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddRepoInvalidURLMapsTo400(t *testing.T) {
	svc := newFakeService()
	svc.addErr = core.ErrInvalidURL

	h := newTestServer(svc, "")

	body, _ := json.Marshal(addRepoRequest{URL: "nonsense"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/repos", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decode(t, rec).Success)
}

func TestAddRepoDuplicateMapsTo409(t *testing.T) {
	svc := newFakeService()
	svc.addErr = store.ErrAlreadyExists

	h := newTestServer(svc, "")

	body, _ := json.Marshal(addRepoRequest{URL: "https://github.com/acme/widget"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/repos", bytes.NewReader(body)))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetRepoNotFound(t *testing.T) {
	h := newTestServer(newFakeService(), "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/repos/ghost", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckVersion(t *testing.T) {
	h := newTestServer(newFakeService(), "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/repos/id-1/check", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)
}

func TestCheckVersionRateLimitedMapsTo429(t *testing.T) {
	svc := newFakeService()
	svc.checkErr = githubapi.ErrRateLimited

	h := newTestServer(svc, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/repos/id-1/check", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestUpdateRepoWarningSurfaced(t *testing.T) {
	svc := newFakeService()
	svc.updateRes = &core.UpdateResult{
		Repo:      svc.repos["id-1"],
		WasActive: true,
		Warning:   &core.Warning{Code: core.WarnReactivationFailed, Message: "could not reactivate"},
	}

	h := newTestServer(svc, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/repos/id-1/update", nil))

	assert.Equal(t, http.StatusOK, rec.Code, "reactivation warning is not an HTTP failure")

	resp := decode(t, rec)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Warning)
	assert.Equal(t, core.WarnReactivationFailed, resp.Warning.Code)
}

func TestChangeBranch(t *testing.T) {
	h := newTestServer(newFakeService(), "")

	body, _ := json.Marshal(changeBranchRequest{Branch: "develop"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/repos/id-1/branch", bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangeBranchRequiresBranch(t *testing.T) {
	h := newTestServer(newFakeService(), "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/repos/id-1/branch", bytes.NewReader([]byte(`{}`))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRepoRejectsUnknownMode(t *testing.T) {
	h := newTestServer(newFakeService(), "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/repos/id-1?mode=everything", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRepo(t *testing.T) {
	svc := newFakeService()
	h := newTestServer(svc, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/repos/id-1?mode=all", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.repos)
}

func TestRemoteBranches(t *testing.T) {
	h := newTestServer(newFakeService(), "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/repos/id-1/branches", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetToken(t *testing.T) {
	svc := newFakeService()
	h := newTestServer(svc, "")

	body, _ := json.Marshal(setTokenRequest{Token: "ghp_abc"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/token", bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ghp_abc", svc.token)
}

func TestClearCache(t *testing.T) {
	svc := newFakeService()
	h := newTestServer(svc, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cache/clear?owner=acme&name=widget", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.cleared)
}

func TestUnhandledErrorMapsTo500(t *testing.T) {
	svc := newFakeService()
	svc.checkErr = errors.New("disk on fire")

	h := newTestServer(svc, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/repos/id-1/check", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
