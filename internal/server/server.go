// Package server exposes the gateways and the ticket workflow over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"ticketbridge.dev/ticketbridge/internal/model"
	"ticketbridge.dev/ticketbridge/internal/runtime"
	"ticketbridge.dev/ticketbridge/internal/tui"
	"ticketbridge.dev/ticketbridge/internal/workflow"
)

const shutdownTimeout = 10 * time.Second

// IssueService is the tracker surface used by the /issues routes
type IssueService interface {
	GetIssue(ctx context.Context, key string) (*model.Issue, error)
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]model.Issue, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
}

// PageService is the wiki surface used by the /pages routes
type PageService interface {
	ListSpaces(ctx context.Context) ([]model.Space, error)
	SearchPages(ctx context.Context, query, spaceKey string) ([]model.PageSummary, error)
	GetPage(ctx context.Context, id string) (*model.Page, error)
	CreatePage(ctx context.Context, req model.CreatePageRequest) (*model.Page, error)
}

// RepositoryService is the code host surface used by the /github routes
type RepositoryService interface {
	ListRepositories(ctx context.Context) ([]model.Repository, error)
	CreateRepository(ctx context.Context, req model.CreateRepositoryRequest) (*model.Repository, error)
	ListPullRequests(ctx context.Context, owner, name string) ([]model.PullRequest, error)
	CreatePullRequest(ctx context.Context, owner, name string, req model.CreatePullRequestRequest) (*model.PullRequest, error)
}

// WorkflowRunner runs the ticket-to-pull-request workflow
type WorkflowRunner interface {
	Run(ctx context.Context, ticketKey, repoOwner, repoName string) (*workflow.Result, error)
}

// Config wires the server to its services
type Config struct {
	Addr     string
	Splog    *tui.Splog
	Issues   IssueService
	Pages    PageService
	Repos    RepositoryService
	Workflow WorkflowRunner
	// Health reports the connection state of each service
	Health func() map[string]string
}

// Server is the HTTP front end
type Server struct {
	addr       string
	splog      *tui.Splog
	handler    *Handler
	httpServer *http.Server
}

// New creates a server from explicit services
func New(cfg Config) *Server {
	splog := cfg.Splog
	if splog == nil {
		splog = tui.NewSplog()
	}

	handler := &Handler{
		splog:    splog,
		issues:   cfg.Issues,
		pages:    cfg.Pages,
		repos:    cfg.Repos,
		workflow: cfg.Workflow,
		health:   cfg.Health,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handler.HandleRoot)
	mux.HandleFunc("GET /health", handler.HandleHealth)

	mux.HandleFunc("GET /issues/projects", handler.HandleListProjects)
	mux.HandleFunc("POST /issues/search", handler.HandleSearchIssues)
	mux.HandleFunc("GET /issues/{issue_key}", handler.HandleGetIssue)

	mux.HandleFunc("GET /pages/spaces", handler.HandleListSpaces)
	mux.HandleFunc("GET /pages/search", handler.HandleSearchPages)
	mux.HandleFunc("GET /pages/{page_id}", handler.HandleGetPage)
	mux.HandleFunc("POST /pages", handler.HandleCreatePage)

	mux.HandleFunc("GET /github/repos", handler.HandleListRepositories)
	mux.HandleFunc("POST /github/repos", handler.HandleCreateRepository)
	mux.HandleFunc("GET /github/repos/{owner}/{repo}/pulls", handler.HandleListPullRequests)
	mux.HandleFunc("POST /github/repos/{owner}/{repo}/pulls", handler.HandleCreatePullRequest)
	mux.HandleFunc("POST /github/process-ticket/{issue_key}", handler.HandleProcessTicket)

	return &Server{
		addr:    cfg.Addr,
		splog:   splog,
		handler: handler,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           withCORS(withRequestLog(splog, mux)),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			// process-ticket makes several sequential remote calls
			WriteTimeout: 2 * time.Minute,
			ErrorLog:     splog.StdLogger(),
		},
	}
}

// NewFromContext creates a server over the gateways of a runtime context
func NewFromContext(rc *runtime.Context, addr string) *Server {
	return New(Config{
		Addr:     addr,
		Splog:    rc.Splog,
		Issues:   rc.Jira,
		Pages:    rc.Confluence,
		Repos:    rc.GitHub,
		Workflow: rc.Workflow,
		Health:   rc.Health,
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.splog.Info("Listening on http://%s", listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.splog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
