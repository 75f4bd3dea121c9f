// Package web serves the admin HTTP API: tracked repository CRUD, version
// checks, updates, branch switches and token management. It is a thin JSON
// layer over the core workflow; no business rules live here.
package web

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/inovacc/plugr/internal/core"
	"github.com/inovacc/plugr/internal/model"
	"github.com/inovacc/plugr/internal/store"
)

// Config holds the web server configuration
type Config struct {
	Port int
	Host string

	// AdminToken, when set, is required as a bearer token on every /api
	// route. /health is always open.
	AdminToken string
}

// DefaultConfig returns the default web server configuration
func DefaultConfig() Config {
	return Config{
		Port: 8080,
		Host: "127.0.0.1",
	}
}

// Service is the workflow surface the handlers consume.
type Service interface {
	AddRepository(ctx context.Context, rawURL, branch string, private bool) (*model.Repository, error)
	CheckVersion(ctx context.Context, id string) (*core.CheckResult, error)
	ChangeBranch(ctx context.Context, id, newBranch string) (*model.Repository, error)
	UpdateRepository(ctx context.Context, id string, force bool) (*core.UpdateResult, error)
	DeleteRepository(ctx context.Context, id string, mode core.DeleteMode) (*core.DeleteResult, error)
	GetStatus(ctx context.Context, id string) (*core.Status, error)
	ListRepositories(opts store.ListOptions) ([]model.Repository, error)
	RemoteBranches(ctx context.Context, id string) ([]string, error)
	ClearSourceCache(owner, name string) error
	SetGitHubToken(token string) error
}

// Server represents the admin API server
type Server struct {
	httpServer *http.Server
	svc        Service
	config     Config
}

// New creates a new admin API server
func New(config Config, svc Service) *Server {
	return &Server{svc: svc, config: config}
}

// Handler builds the full route tree with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupRoutes(mux)

	return s.loggingMiddleware(s.authMiddleware(mux))
}

// Start starts the server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Printf("Admin API listening on http://%s", addr)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	<-ctx.Done()

	return s.Shutdown(context.Background()) //nolint:contextcheck // parent context cancelled, use background for shutdown
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	log.Println("Shutting down admin API...")
	return s.httpServer.Shutdown(shutdownCtx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// authMiddleware enforces the admin bearer token on /api routes.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.AdminToken == "" || !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.config.AdminToken)) != 1 {
			s.jsonError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
