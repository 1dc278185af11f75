package testhelpers

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
)

// JiraIssueFixture describes an issue served by the mock Jira server.
// Empty optional fields are omitted from the response.
type JiraIssueFixture struct {
	Key         string
	Summary     string
	Description string
	Status      string
	Type        string
	Priority    string
	Assignee    string
}

// MockJiraServerConfig configures the behavior of a mock Jira server
type MockJiraServerConfig struct {
	mu sync.Mutex

	// DisplayName is returned by GET /rest/api/2/myself
	DisplayName string
	Issues      map[string]JiraIssueFixture
	Projects    map[string]string
	// Requests counts requests per "METHOD /path"
	Requests map[string]int
	// LastJQL is the most recent search query
	LastJQL string
	// LastMaxResults is the maxResults of the most recent search
	LastMaxResults int
	// ErrorResponses maps "METHOD /path" to a status code returned instead of the normal response
	ErrorResponses map[string]int
}

// NewMockJiraServerConfig creates a new mock server config with defaults
func NewMockJiraServerConfig() *MockJiraServerConfig {
	return &MockJiraServerConfig{
		DisplayName:    "Jira Bot",
		Issues:         make(map[string]JiraIssueFixture),
		Projects:       make(map[string]string),
		Requests:       make(map[string]int),
		ErrorResponses: make(map[string]int),
	}
}

// AddIssue registers an issue
func (c *MockJiraServerConfig) AddIssue(issue JiraIssueFixture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Issues[issue.Key] = issue
}

// RequestCount returns how many times "METHOD /path" was requested
func (c *MockJiraServerConfig) RequestCount(methodAndPath string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Requests[methodAndPath]
}

// NewMockJiraServer creates an httptest server that mocks the Jira REST API v2
func NewMockJiraServer(t *testing.T, config *MockJiraServerConfig) *httptest.Server {
	if config == nil {
		config = NewMockJiraServerConfig()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /rest/api/2/myself", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"name":        "jira-bot",
			"displayName": config.DisplayName,
		})
	})

	mux.HandleFunc("GET /rest/api/2/issue/{key}", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		issue, ok := config.Issues[r.PathValue("key")]
		config.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"errorMessages": []string{"Issue does not exist or you do not have permission to see it."},
				"errors":        map[string]string{},
			})
			return
		}
		writeJSON(w, http.StatusOK, jiraIssueJSON(issue))
	})

	mux.HandleFunc("GET /rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		maxResults, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))

		config.mu.Lock()
		config.LastJQL = r.URL.Query().Get("jql")
		config.LastMaxResults = maxResults
		keys := make([]string, 0, len(config.Issues))
		for key := range config.Issues {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		issues := make([]map[string]any, 0, len(keys))
		for _, key := range keys {
			if maxResults > 0 && len(issues) >= maxResults {
				break
			}
			issues = append(issues, jiraIssueJSON(config.Issues[key]))
		}
		config.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{
			"startAt":    0,
			"maxResults": maxResults,
			"total":      len(keys),
			"issues":     issues,
		})
	})

	mux.HandleFunc("GET /rest/api/2/project", func(w http.ResponseWriter, _ *http.Request) {
		config.mu.Lock()
		keys := make([]string, 0, len(config.Projects))
		for key := range config.Projects {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		projects := make([]map[string]string, 0, len(keys))
		for _, key := range keys {
			projects = append(projects, map[string]string{"key": key, "name": config.Projects[key]})
		}
		config.mu.Unlock()

		writeJSON(w, http.StatusOK, projects)
	})

	next := withErrorResponses(&config.mu, config.ErrorResponses, mux)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		config.Requests[r.Method+" "+r.URL.Path]++
		config.mu.Unlock()
		next.ServeHTTP(w, r)
	})

	server := httptest.NewServer(handler)
	t.Cleanup(func() { server.Close() })
	return server
}

func jiraIssueJSON(issue JiraIssueFixture) map[string]any {
	fields := map[string]any{
		"summary":   issue.Summary,
		"status":    map[string]string{"name": issue.Status},
		"issuetype": map[string]string{"name": issue.Type},
	}
	if issue.Description != "" {
		fields["description"] = issue.Description
	}
	if issue.Priority != "" {
		fields["priority"] = map[string]string{"name": issue.Priority}
	}
	if issue.Assignee != "" {
		fields["assignee"] = map[string]string{"displayName": issue.Assignee}
	}
	return map[string]any{
		"id":     "10001",
		"key":    issue.Key,
		"fields": fields,
	}
}
