package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	tberrors "ticketbridge.dev/ticketbridge/internal/errors"
	"ticketbridge.dev/ticketbridge/internal/jira"
	"ticketbridge.dev/ticketbridge/internal/model"
	"ticketbridge.dev/ticketbridge/internal/tui"
)

const (
	welcomeMessage = "Welcome to the Jira-Confluence-GitHub integration API"

	// maxRequestBody bounds JSON request bodies
	maxRequestBody = 1 << 20
)

// Handler holds the route handlers
type Handler struct {
	splog    *tui.Splog
	issues   IssueService
	pages    PageService
	repos    RepositoryService
	workflow WorkflowRunner
	health   func() map[string]string
}

// SearchIssuesRequest is the body of POST /issues/search
type SearchIssuesRequest struct {
	JQL        string `json:"jql"`
	MaxResults *int   `json:"max_results,omitempty"`
}

// HandleRoot returns a welcome message
func (h *Handler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

// HandleHealth reports per-service connection state
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	status := map[string]string{}
	if h.health != nil {
		status = h.health()
	}
	h.writeJSON(w, http.StatusOK, status)
}

// HandleGetIssue returns a single issue
func (h *Handler) HandleGetIssue(w http.ResponseWriter, r *http.Request) {
	if h.issues == nil {
		h.writeError(w, tberrors.NewUnavailableError("Jira"))
		return
	}
	issue, err := h.issues.GetIssue(r.Context(), r.PathValue("issue_key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, issue)
}

// HandleSearchIssues runs a JQL search
func (h *Handler) HandleSearchIssues(w http.ResponseWriter, r *http.Request) {
	if h.issues == nil {
		h.writeError(w, tberrors.NewUnavailableError("Jira"))
		return
	}
	var req SearchIssuesRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.JQL) == "" {
		h.badRequest(w, "jql is required")
		return
	}
	maxResults := jira.DefaultSearchLimit
	if req.MaxResults != nil {
		if *req.MaxResults <= 0 {
			h.badRequest(w, "max_results must be positive")
			return
		}
		maxResults = *req.MaxResults
	}

	issues, err := h.issues.SearchIssues(r.Context(), req.JQL, maxResults)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, issues)
}

// HandleListProjects lists tracker projects
func (h *Handler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	if h.issues == nil {
		h.writeError(w, tberrors.NewUnavailableError("Jira"))
		return
	}
	projects, err := h.issues.ListProjects(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, projects)
}

// HandleListSpaces lists wiki spaces
func (h *Handler) HandleListSpaces(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		h.writeError(w, tberrors.NewUnavailableError("Confluence"))
		return
	}
	spaces, err := h.pages.ListSpaces(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, spaces)
}

// HandleSearchPages runs a full-text page search
func (h *Handler) HandleSearchPages(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		h.writeError(w, tberrors.NewUnavailableError("Confluence"))
		return
	}
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		h.badRequest(w, "query is required")
		return
	}

	pages, err := h.pages.SearchPages(r.Context(), query, r.URL.Query().Get("space_key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pages)
}

// HandleGetPage returns a page with its body
func (h *Handler) HandleGetPage(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		h.writeError(w, tberrors.NewUnavailableError("Confluence"))
		return
	}
	page, err := h.pages.GetPage(r.Context(), r.PathValue("page_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// HandleCreatePage creates a page
func (h *Handler) HandleCreatePage(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		h.writeError(w, tberrors.NewUnavailableError("Confluence"))
		return
	}
	var req model.CreatePageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Title == "" || req.SpaceKey == "" {
		h.badRequest(w, "title and space_key are required")
		return
	}

	page, err := h.pages.CreatePage(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// HandleListRepositories lists the authenticated user's repositories
func (h *Handler) HandleListRepositories(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		h.writeError(w, tberrors.NewUnavailableError("GitHub"))
		return
	}
	repos, err := h.repos.ListRepositories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, repos)
}

// HandleCreateRepository creates a repository
func (h *Handler) HandleCreateRepository(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		h.writeError(w, tberrors.NewUnavailableError("GitHub"))
		return
	}
	var req model.CreateRepositoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		h.badRequest(w, "name is required")
		return
	}

	repo, err := h.repos.CreateRepository(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, repo)
}

// HandleListPullRequests lists a repository's pull requests
func (h *Handler) HandleListPullRequests(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		h.writeError(w, tberrors.NewUnavailableError("GitHub"))
		return
	}
	prs, err := h.repos.ListPullRequests(r.Context(), r.PathValue("owner"), r.PathValue("repo"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, prs)
}

// HandleCreatePullRequest opens a pull request
func (h *Handler) HandleCreatePullRequest(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		h.writeError(w, tberrors.NewUnavailableError("GitHub"))
		return
	}
	var req model.CreatePullRequestRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Title == "" || req.Head == "" || req.Base == "" {
		h.badRequest(w, "title, head and base are required")
		return
	}

	pr, err := h.repos.CreatePullRequest(r.Context(), r.PathValue("owner"), r.PathValue("repo"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pr)
}

// HandleProcessTicket runs the ticket workflow
func (h *Handler) HandleProcessTicket(w http.ResponseWriter, r *http.Request) {
	if h.workflow == nil {
		h.writeError(w, tberrors.NewServiceUnavailableError("Jira or GitHub"))
		return
	}
	owner := r.URL.Query().Get("repo_owner")
	name := r.URL.Query().Get("repo_name")
	if owner == "" || name == "" {
		h.badRequest(w, "repo_owner and repo_name query parameters are required")
		return
	}

	key := r.PathValue("issue_key")
	result, err := h.workflow.Run(r.Context(), key, owner, name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.splog.Info("Opened %s for %s", result.ChangeRequestURL, key)
	h.writeJSON(w, http.StatusOK, result)
}

// decode reads a JSON body into v, writing a BadRequest response on failure
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := decoder.Decode(v); err != nil {
		h.badRequest(w, "invalid request body: %v", err)
		return false
	}
	return true
}
