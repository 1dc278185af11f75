package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// ConfluencePageFixture describes a page served by the mock Confluence server
type ConfluencePageFixture struct {
	ID       string
	Title    string
	SpaceKey string
	Version  int
	Body     string
	// Issues lists the issue keys the page is linked to
	Issues []string
}

// MockConfluenceServerConfig configures the behavior of a mock Confluence server
type MockConfluenceServerConfig struct {
	mu sync.Mutex

	Spaces map[string]string
	Pages  map[string]*ConfluencePageFixture
	// CreatedPages records the bodies of POST /rest/api/content in order
	CreatedPages []map[string]any
	// LastCQL is the most recent search query
	LastCQL string
	// LastLimit is the limit of the most recent search
	LastLimit int
	// ErrorResponses maps "METHOD /path" to a status code returned instead of the normal response
	ErrorResponses map[string]int

	nextID int
}

// NewMockConfluenceServerConfig creates a new mock server config with defaults
func NewMockConfluenceServerConfig() *MockConfluenceServerConfig {
	return &MockConfluenceServerConfig{
		Spaces:         make(map[string]string),
		Pages:          make(map[string]*ConfluencePageFixture),
		ErrorResponses: make(map[string]int),
		nextID:         1000,
	}
}

// AddPage registers a page; its space is created if needed
func (c *MockConfluenceServerConfig) AddPage(page ConfluencePageFixture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page.Version == 0 {
		page.Version = 1
	}
	if _, ok := c.Spaces[page.SpaceKey]; !ok {
		c.Spaces[page.SpaceKey] = page.SpaceKey
	}
	c.Pages[page.ID] = &page
}

// FailWith makes "METHOD /path" answer with status; a zero status clears it
func (c *MockConfluenceServerConfig) FailWith(methodAndPath string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if status == 0 {
		delete(c.ErrorResponses, methodAndPath)
		return
	}
	c.ErrorResponses[methodAndPath] = status
}

// Created returns a copy of the recorded page creations
func (c *MockConfluenceServerConfig) Created() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]any(nil), c.CreatedPages...)
}

// NewMockConfluenceServer creates an httptest server that mocks the Confluence REST API.
// Only the CQL shapes "issue = KEY" and `text ~ "q" [AND space = "S"]` are understood.
func NewMockConfluenceServer(t *testing.T, config *MockConfluenceServerConfig) *httptest.Server {
	if config == nil {
		config = NewMockConfluenceServerConfig()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /rest/api/space", func(w http.ResponseWriter, _ *http.Request) {
		config.mu.Lock()
		keys := make([]string, 0, len(config.Spaces))
		for key := range config.Spaces {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		results := make([]map[string]string, 0, len(keys))
		for _, key := range keys {
			results = append(results, map[string]string{"key": key, "name": config.Spaces[key]})
		}
		config.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	})

	mux.HandleFunc("GET /rest/api/content/{id}", func(w http.ResponseWriter, r *http.Request) {
		config.mu.Lock()
		page, ok := config.Pages[r.PathValue("id")]
		var body map[string]any
		if ok {
			body = confluencePageJSON(page, true)
		}
		config.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "message": "No content found"})
			return
		}
		writeJSON(w, http.StatusOK, body)
	})

	mux.HandleFunc("POST /rest/api/content", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string `json:"title"`
			Space struct {
				Key string `json:"key"`
			} `json:"space"`
			Body struct {
				Storage struct {
					Value string `json:"value"`
				} `json:"storage"`
			} `json:"body"`
		}
		raw := map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid body")
			return
		}
		data, _ := json.Marshal(raw)
		_ = json.Unmarshal(data, &req)

		config.mu.Lock()
		defer config.mu.Unlock()

		config.CreatedPages = append(config.CreatedPages, raw)
		if _, ok := config.Spaces[req.Space.Key]; !ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{"statusCode": 400, "message": "No space with key : " + req.Space.Key})
			return
		}
		config.nextID++
		page := &ConfluencePageFixture{
			ID:       strconv.Itoa(config.nextID),
			Title:    req.Title,
			SpaceKey: req.Space.Key,
			Version:  1,
			Body:     req.Body.Storage.Value,
		}
		config.Pages[page.ID] = page
		writeJSON(w, http.StatusOK, confluencePageJSON(page, true))
	})

	mux.HandleFunc("GET /rest/api/search", func(w http.ResponseWriter, r *http.Request) {
		cql := r.URL.Query().Get("cql")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		config.mu.Lock()
		config.LastCQL = cql
		config.LastLimit = limit
		ids := make([]string, 0, len(config.Pages))
		for id := range config.Pages {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		results := make([]map[string]any, 0)
		for _, id := range ids {
			if limit > 0 && len(results) >= limit {
				break
			}
			page := config.Pages[id]
			if matchesCQL(page, cql) {
				results = append(results, map[string]any{"content": confluencePageJSON(page, false)})
			}
		}
		config.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{"results": results, "size": len(results)})
	})

	server := httptest.NewServer(withErrorResponses(&config.mu, config.ErrorResponses, mux))
	t.Cleanup(func() { server.Close() })
	return server
}

func confluencePageJSON(page *ConfluencePageFixture, withBody bool) map[string]any {
	out := map[string]any{
		"id":      page.ID,
		"type":    "page",
		"title":   page.Title,
		"space":   map[string]string{"key": page.SpaceKey},
		"version": map[string]int{"number": page.Version},
	}
	if withBody {
		out["body"] = map[string]any{
			"storage": map[string]string{"value": page.Body, "representation": "storage"},
		}
	}
	return out
}

func matchesCQL(page *ConfluencePageFixture, cql string) bool {
	if key, ok := strings.CutPrefix(cql, "issue = "); ok {
		for _, issue := range page.Issues {
			if issue == key {
				return true
			}
		}
		return false
	}

	var text, space string
	if i := strings.Index(cql, ` AND space = "`); i >= 0 {
		space = strings.TrimSuffix(cql[i+len(` AND space = "`):], `"`)
		cql = cql[:i]
	}
	if _, err := fmt.Sscanf(cql, "text ~ %q", &text); err != nil {
		return false
	}
	if space != "" && page.SpaceKey != space {
		return false
	}
	return strings.Contains(strings.ToLower(page.Title+" "+page.Body), strings.ToLower(text))
}
