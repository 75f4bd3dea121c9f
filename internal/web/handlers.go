package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/inovacc/plugr/internal/core"
	"github.com/inovacc/plugr/internal/githubapi"
	"github.com/inovacc/plugr/internal/installer"
	"github.com/inovacc/plugr/internal/store"
)

// APIResponse is a generic API response
type APIResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Data    any           `json:"data,omitempty"`
	Warning *core.Warning `json:"warning,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type addRepoRequest struct {
	URL     string `json:"url"`
	Branch  string `json:"branch"`
	Private bool   `json:"private"`
}

type changeBranchRequest struct {
	Branch string `json:"branch"`
}

type setTokenRequest struct {
	Token string `json:"token"`
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, APIResponse{Success: true, Message: "ok"})
}

// handleListRepos returns all tracked repositories
func (s *Server) handleListRepos(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{
		OrderBy: r.URL.Query().Get("order_by"),
		Desc:    r.URL.Query().Get("desc") == "true",
	}

	switch r.URL.Query().Get("visibility") {
	case "private":
		opts.PrivateOnly = true
	case "public":
		opts.PublicOnly = true
	}

	repos, err := s.svc.ListRepositories(opts)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, APIResponse{Success: true, Data: repos})
}

// handleAddRepo registers and installs a repository
func (s *Server) handleAddRepo(w http.ResponseWriter, r *http.Request) {
	var req addRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.URL == "" {
		s.jsonError(w, "Repository URL required", http.StatusBadRequest)
		return
	}

	repo, err := s.svc.AddRepository(r.Context(), req.URL, req.Branch, req.Private)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(APIResponse{Success: true, Message: "Repository added", Data: repo}); err != nil {
		log.Printf("JSON encode error: %v", err)
	}
}

// handleGetRepo returns one repository with its installation status
func (s *Server) handleGetRepo(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.GetStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, APIResponse{Success: true, Data: status})
}

// handleCheckVersion reconciles installed and remote versions
func (s *Server) handleCheckVersion(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.CheckVersion(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, APIResponse{Success: true, Data: res, Warning: res.Warning})
}

// handleUpdateRepo updates the installed files to the branch head
func (s *Server) handleUpdateRepo(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	res, err := s.svc.UpdateRepository(r.Context(), r.PathValue("id"), force)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, APIResponse{Success: true, Message: "Repository updated", Data: res, Warning: res.Warning})
}

// handleChangeBranch switches the tracked branch
func (s *Server) handleChangeBranch(w http.ResponseWriter, r *http.Request) {
	var req changeBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Branch == "" {
		s.jsonError(w, "Branch name required", http.StatusBadRequest)
		return
	}

	repo, err := s.svc.ChangeBranch(r.Context(), r.PathValue("id"), req.Branch)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, APIResponse{Success: true, Message: "Branch changed", Data: repo})
}

// handleDeleteRepo removes a repository's data, files, or both
func (s *Server) handleDeleteRepo(w http.ResponseWriter, r *http.Request) {
	mode := core.DeleteBoth

	switch r.URL.Query().Get("mode") {
	case "", "all":
	case "data":
		mode = core.DeleteDataOnly
	case "files":
		mode = core.DeleteFilesOnly
	default:
		s.jsonError(w, "Unknown delete mode", http.StatusBadRequest)
		return
	}

	res, err := s.svc.DeleteRepository(r.Context(), r.PathValue("id"), mode)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, APIResponse{Success: true, Message: "Repository deleted", Data: res, Warning: res.Warning})
}

// handleRemoteBranches lists branches available upstream
func (s *Server) handleRemoteBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := s.svc.RemoteBranches(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, APIResponse{Success: true, Data: branches})
}

// handleSetToken stores or clears the GitHub access token
func (s *Server) handleSetToken(w http.ResponseWriter, r *http.Request) {
	var req setTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.svc.SetGitHubToken(req.Token); err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, APIResponse{Success: true, Message: "Token updated"})
}

// handleClearCache drops cached upstream responses
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	name := r.URL.Query().Get("name")

	if err := s.svc.ClearSourceCache(owner, name); err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, APIResponse{Success: true, Message: "Cache cleared"})
}

// errorResponse maps workflow errors to HTTP status codes.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, githubapi.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyExists), errors.Is(err, installer.ErrTargetConflict),
		errors.Is(err, core.ErrDeactivationFailed):
		status = http.StatusConflict
	case errors.Is(err, core.ErrInvalidURL):
		status = http.StatusBadRequest
	case errors.Is(err, githubapi.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, githubapi.ErrVersionUndeterminable):
		status = http.StatusUnprocessableEntity
	}

	s.jsonError(w, err.Error(), status)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("JSON encode error: %v", err)
	}
}

// jsonError writes a JSON error response
func (s *Server) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	}); err != nil {
		log.Printf("JSON encode error: %v", err)
	}
}
