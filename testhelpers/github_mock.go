// Package testhelpers provides httptest mock servers for the GitHub, Jira and
// Confluence APIs, so gateway and server tests exercise the real client libraries.
package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
)

// CreatedRef records a POST /repos/{owner}/{repo}/git/refs call
type CreatedRef struct {
	Repo string
	Ref  string
	SHA  string
}

// MockGitHubServerConfig configures the behavior of a mock GitHub server
type MockGitHubServerConfig struct {
	mu sync.Mutex

	// Login is the authenticated user returned by GET /user
	Login string
	// Repos maps "owner/name" to repository data
	Repos map[string]*github.Repository
	// Branches maps "owner/name" to branch name -> head commit SHA
	Branches map[string]map[string]string
	// PRs maps "owner/name" to its pull requests
	PRs map[string][]*github.PullRequest
	// CreatedRefs stores refs that were created (for testing)
	CreatedRefs []CreatedRef
	// CreatedPRs stores PRs that were created (for testing)
	CreatedPRs []*github.PullRequest
	// CreatedRepos stores repositories created through POST /user/repos
	CreatedRepos []*github.Repository
	// ErrorResponses maps "METHOD /path" to a status code returned instead of the normal response
	ErrorResponses map[string]int
}

// NewMockGitHubServerConfig creates a new mock server config with defaults
func NewMockGitHubServerConfig() *MockGitHubServerConfig {
	return &MockGitHubServerConfig{
		Login:          "octocat",
		Repos:          make(map[string]*github.Repository),
		Branches:       make(map[string]map[string]string),
		PRs:            make(map[string][]*github.PullRequest),
		ErrorResponses: make(map[string]int),
	}
}

// AddRepository registers a repository whose default branch points at headSHA
func (c *MockGitHubServerConfig) AddRepository(owner, name, defaultBranch, headSHA string) *github.Repository {
	c.mu.Lock()
	defer c.mu.Unlock()

	fullName := owner + "/" + name
	repo := &github.Repository{
		Name:            github.String(name),
		FullName:        github.String(fullName),
		Owner:           &github.User{Login: github.String(owner)},
		HTMLURL:         github.String("https://github.com/" + fullName),
		DefaultBranch:   github.String(defaultBranch),
		StargazersCount: github.Int(0),
		ForksCount:      github.Int(0),
	}
	c.Repos[fullName] = repo
	if c.Branches[fullName] == nil {
		c.Branches[fullName] = make(map[string]string)
	}
	if defaultBranch != "" {
		c.Branches[fullName][defaultBranch] = headSHA
	}
	return repo
}

// AddBranch registers an existing branch
func (c *MockGitHubServerConfig) AddBranch(owner, name, branch, sha string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fullName := owner + "/" + name
	if c.Branches[fullName] == nil {
		c.Branches[fullName] = make(map[string]string)
	}
	c.Branches[fullName][branch] = sha
}

// FailWith makes the given "METHOD /path" respond with status
func (c *MockGitHubServerConfig) FailWith(methodAndPath string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ErrorResponses[methodAndPath] = status
}

// Refs returns a copy of the refs created so far
func (c *MockGitHubServerConfig) Refs() []CreatedRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CreatedRef(nil), c.CreatedRefs...)
}

// PullRequests returns a copy of the PRs created so far
func (c *MockGitHubServerConfig) PullRequests() []*github.PullRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*github.PullRequest(nil), c.CreatedPRs...)
}

// HasBranch reports whether the branch exists in the mock repository
func (c *MockGitHubServerConfig) HasBranch(owner, name, branch string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.Branches[owner+"/"+name][branch]
	return ok
}

// NewMockGitHubServer creates an httptest server that mocks GitHub API endpoints
func NewMockGitHubServer(t *testing.T, config *MockGitHubServerConfig) *httptest.Server {
	if config == nil {
		config = NewMockGitHubServerConfig()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /user", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, &github.User{Login: github.String(config.Login)})
	})

	mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, _ *http.Request) {
		config.mu.Lock()
		names := make([]string, 0, len(config.Repos))
		for name := range config.Repos {
			names = append(names, name)
		}
		sort.Strings(names)
		repos := make([]*github.Repository, 0, len(names))
		for _, name := range names {
			repos = append(repos, config.Repos[name])
		}
		config.mu.Unlock()

		writeJSON(w, http.StatusOK, repos)
	})

	mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
			Private     *bool   `json:"private"`
			AutoInit    *bool   `json:"auto_init"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == nil {
			writeMessage(w, http.StatusBadRequest, "Problems parsing JSON")
			return
		}

		config.mu.Lock()
		defer config.mu.Unlock()

		fullName := config.Login + "/" + *req.Name
		if _, exists := config.Repos[fullName]; exists {
			writeMessage(w, http.StatusUnprocessableEntity, "Repository creation failed.")
			return
		}
		repo := &github.Repository{
			Name:            req.Name,
			FullName:        github.String(fullName),
			Owner:           &github.User{Login: github.String(config.Login)},
			Description:     req.Description,
			Private:         req.Private,
			HTMLURL:         github.String("https://github.com/" + fullName),
			DefaultBranch:   github.String("main"),
			StargazersCount: github.Int(0),
			ForksCount:      github.Int(0),
		}
		config.Repos[fullName] = repo
		config.CreatedRepos = append(config.CreatedRepos, repo)
		writeJSON(w, http.StatusCreated, repo)
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		repo, ok := config.Repos[r.PathValue("owner")+"/"+r.PathValue("repo")]
		config.mu.Unlock()
		if !ok {
			writeMessage(w, http.StatusNotFound, "Not Found")
			return
		}
		writeJSON(w, http.StatusOK, repo)
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}/git/ref/heads/{branch...}", func(w http.ResponseWriter, r *http.Request) {
		branch := r.PathValue("branch")
		config.mu.Lock()
		sha, ok := config.Branches[r.PathValue("owner")+"/"+r.PathValue("repo")][branch]
		config.mu.Unlock()
		if !ok {
			writeMessage(w, http.StatusNotFound, "Not Found")
			return
		}
		writeJSON(w, http.StatusOK, &github.Reference{
			Ref:    github.String("refs/heads/" + branch),
			Object: &github.GitObject{SHA: github.String(sha), Type: github.String("commit")},
		})
	})

	mux.HandleFunc("POST /repos/{owner}/{repo}/git/refs", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Ref *string `json:"ref"`
			SHA *string `json:"sha"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ref == nil || req.SHA == nil {
			writeMessage(w, http.StatusBadRequest, "Problems parsing JSON")
			return
		}

		fullName := r.PathValue("owner") + "/" + r.PathValue("repo")
		branch := strings.TrimPrefix(*req.Ref, "refs/heads/")

		config.mu.Lock()
		defer config.mu.Unlock()

		if _, ok := config.Repos[fullName]; !ok {
			writeMessage(w, http.StatusNotFound, "Not Found")
			return
		}
		if config.Branches[fullName] == nil {
			config.Branches[fullName] = make(map[string]string)
		}
		if _, exists := config.Branches[fullName][branch]; exists {
			writeMessage(w, http.StatusUnprocessableEntity, "Reference already exists")
			return
		}
		config.Branches[fullName][branch] = *req.SHA
		config.CreatedRefs = append(config.CreatedRefs, CreatedRef{Repo: fullName, Ref: *req.Ref, SHA: *req.SHA})

		writeJSON(w, http.StatusCreated, &github.Reference{
			Ref:    req.Ref,
			Object: &github.GitObject{SHA: req.SHA, Type: github.String("commit")},
		})
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}/pulls", func(w http.ResponseWriter, r *http.Request) {
		fullName := r.PathValue("owner") + "/" + r.PathValue("repo")
		config.mu.Lock()
		_, ok := config.Repos[fullName]
		prs := append([]*github.PullRequest{}, config.PRs[fullName]...)
		config.mu.Unlock()
		if !ok {
			writeMessage(w, http.StatusNotFound, "Not Found")
			return
		}
		writeJSON(w, http.StatusOK, prs)
	})

	mux.HandleFunc("POST /repos/{owner}/{repo}/pulls", func(w http.ResponseWriter, r *http.Request) {
		var newPR github.NewPullRequest
		if err := json.NewDecoder(r.Body).Decode(&newPR); err != nil || newPR.Head == nil || newPR.Base == nil {
			writeMessage(w, http.StatusBadRequest, "Problems parsing JSON")
			return
		}

		owner := r.PathValue("owner")
		fullName := owner + "/" + r.PathValue("repo")

		config.mu.Lock()
		defer config.mu.Unlock()

		if _, ok := config.Repos[fullName]; !ok {
			writeMessage(w, http.StatusNotFound, "Not Found")
			return
		}
		branches := config.Branches[fullName]
		if _, ok := branches[*newPR.Head]; !ok {
			writeMessage(w, http.StatusUnprocessableEntity, "Validation Failed: head invalid")
			return
		}
		if _, ok := branches[*newPR.Base]; !ok {
			writeMessage(w, http.StatusUnprocessableEntity, "Validation Failed: base invalid")
			return
		}

		prNumber := len(config.PRs[fullName]) + 1
		now := github.Timestamp{Time: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
		pr := &github.PullRequest{
			Number:    github.Int(prNumber),
			Title:     newPR.Title,
			Body:      newPR.Body,
			State:     github.String("open"),
			Head:      &github.PullRequestBranch{Ref: newPR.Head},
			Base:      &github.PullRequestBranch{Ref: newPR.Base},
			Draft:     newPR.Draft,
			User:      &github.User{Login: github.String(config.Login)},
			CreatedAt: &now,
			UpdatedAt: &now,
			HTMLURL:   github.String(fmt.Sprintf("https://github.com/%s/pull/%d", fullName, prNumber)),
		}

		config.CreatedPRs = append(config.CreatedPRs, pr)
		config.PRs[fullName] = append(config.PRs[fullName], pr)

		writeJSON(w, http.StatusCreated, pr)
	})

	server := httptest.NewServer(withErrorResponses(&config.mu, config.ErrorResponses, mux))
	t.Cleanup(func() { server.Close() })
	return server
}

// NewMockGitHubClient creates a GitHub client configured to use a mock server
func NewMockGitHubClient(t *testing.T, config *MockGitHubServerConfig) *github.Client {
	server := NewMockGitHubServer(t, config)
	client := github.NewClient(nil)
	baseURL, _ := url.Parse(server.URL + "/")
	client.BaseURL = baseURL
	client.UploadURL = baseURL
	return client
}

// withErrorResponses short-circuits requests whose "METHOD /path" is configured to fail
func withErrorResponses(mu *sync.Mutex, errs map[string]int, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		status, ok := errs[r.Method+" "+r.URL.Path]
		mu.Unlock()
		if ok {
			writeMessage(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
