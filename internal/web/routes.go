package web

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Repository API
	mux.HandleFunc("GET /api/repos", s.handleListRepos)
	mux.HandleFunc("POST /api/repos", s.handleAddRepo)
	mux.HandleFunc("GET /api/repos/{id}", s.handleGetRepo)
	mux.HandleFunc("DELETE /api/repos/{id}", s.handleDeleteRepo)
	mux.HandleFunc("POST /api/repos/{id}/check", s.handleCheckVersion)
	mux.HandleFunc("POST /api/repos/{id}/update", s.handleUpdateRepo)
	mux.HandleFunc("PUT /api/repos/{id}/branch", s.handleChangeBranch)
	mux.HandleFunc("GET /api/repos/{id}/branches", s.handleRemoteBranches)

	// Settings API
	mux.HandleFunc("PUT /api/token", s.handleSetToken)
	mux.HandleFunc("POST /api/cache/clear", s.handleClearCache)

	// System
	mux.HandleFunc("GET /health", s.handleHealth)
}
