// Package confluence is the wiki gateway. It speaks the Confluence REST content
// API directly and translates pages into the model types.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ticketbridge.dev/ticketbridge/internal/config"
	tberrors "ticketbridge.dev/ticketbridge/internal/errors"
	"ticketbridge.dev/ticketbridge/internal/model"
	"ticketbridge.dev/ticketbridge/internal/tui"
)

const (
	serviceName = "Confluence"

	// DefaultSearchLimit caps page search results
	DefaultSearchLimit = 50

	// maxErrorBody bounds how much of an error response is quoted in messages
	maxErrorBody = 512
)

// Client is a long-lived Confluence connection. A nil *Client is valid and
// reports itself as disconnected.
type Client struct {
	httpClient *http.Client
	baseURL    string
	email      string
	apiToken   string
	splog      *tui.Splog
}

// Connect creates a Confluence client. No request is made; credentials are
// only checked on first use. splog receives degraded-search warnings and may be nil.
func Connect(cfg config.ConfluenceConfig, splog *tui.Splog) (*Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("CONFLUENCE_URL and Atlassian credentials are required")
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid Confluence URL %q: %w", cfg.URL, err)
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		email:      cfg.Email,
		apiToken:   cfg.APIToken,
		splog:      splog,
	}, nil
}

// Connected reports whether the client was created
func (c *Client) Connected() bool {
	return c != nil && c.httpClient != nil
}

// wire formats

type spaceRef struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

type versionRef struct {
	Number int `json:"number"`
}

type storageBody struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type content struct {
	ID      string     `json:"id"`
	Type    string     `json:"type"`
	Title   string     `json:"title"`
	Space   spaceRef   `json:"space"`
	Version versionRef `json:"version"`
	Body    *struct {
		Storage *storageBody `json:"storage,omitempty"`
	} `json:"body,omitempty"`
}

type searchResponse struct {
	Results []struct {
		Content content `json:"content"`
	} `json:"results"`
}

type spaceListResponse struct {
	Results []spaceRef `json:"results"`
}

// PageURL builds the browser URL of a page
func (c *Client) PageURL(spaceKey, pageID string) string {
	return fmt.Sprintf("%s/spaces/%s/pages/%s", c.baseURL, spaceKey, pageID)
}

// ListSpaces lists the spaces visible to the connected user
func (c *Client) ListSpaces(ctx context.Context) ([]model.Space, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	var result spaceListResponse
	if err := c.do(ctx, http.MethodGet, "/rest/api/space", url.Values{"limit": {"100"}}, nil, &result); err != nil {
		return nil, classify(err, "failed to fetch spaces")
	}

	spaces := make([]model.Space, 0, len(result.Results))
	for _, s := range result.Results {
		spaces = append(spaces, model.Space{Key: s.Key, Name: s.Name})
	}
	return spaces, nil
}

// GetPage fetches a page with its storage-format body
func (c *Client) GetPage(ctx context.Context, id string) (*model.Page, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	var page content
	query := url.Values{"expand": {"body.storage,space,version"}}
	if err := c.do(ctx, http.MethodGet, "/rest/api/content/"+url.PathEscape(id), query, nil, &page); err != nil {
		return nil, classify(err, "failed to fetch page "+id)
	}
	return toPage(page), nil
}

// CreatePage creates a page, optionally under a parent page
func (c *Client) CreatePage(ctx context.Context, req model.CreatePageRequest) (*model.Page, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	payload := map[string]any{
		"type":  "page",
		"title": req.Title,
		"space": spaceRef{Key: req.SpaceKey},
		"body": map[string]any{
			"storage": storageBody{Value: req.Body, Representation: "storage"},
		},
	}
	if req.ParentID != nil && *req.ParentID != "" {
		payload["ancestors"] = []map[string]string{{"id": *req.ParentID}}
	}

	var page content
	if err := c.do(ctx, http.MethodPost, "/rest/api/content", url.Values{"expand": {"body.storage,space,version"}}, payload, &page); err != nil {
		return nil, tberrors.New(tberrors.KindBadRequest, "failed to create page", err)
	}
	return toPage(page), nil
}

// SearchPages runs a full-text search, optionally restricted to a space
func (c *Client) SearchPages(ctx context.Context, query, spaceKey string) ([]model.PageSummary, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	cql := fmt.Sprintf(`text ~ "%s"`, escapeCQL(query))
	if spaceKey != "" {
		cql += fmt.Sprintf(` AND space = "%s"`, escapeCQL(spaceKey))
	}

	results, err := c.cql(ctx, cql, DefaultSearchLimit)
	if err != nil {
		return nil, tberrors.New(tberrors.KindBadRequest, "failed to search pages", err)
	}

	pages := make([]model.PageSummary, 0, len(results))
	for _, r := range results {
		pages = append(pages, model.PageSummary{
			ID:       r.ID,
			Title:    r.Title,
			SpaceKey: r.Space.Key,
			Version:  r.Version.Number,
		})
	}
	return pages, nil
}

// FindRelatedDocuments returns up to limit pages linked to the issue key.
// It never fails: a disconnected client or a failed search yields no documents
// and a warning.
func (c *Client) FindRelatedDocuments(ctx context.Context, issueKey string, limit int) []model.DocumentReference {
	if !c.Connected() {
		return []model.DocumentReference{}
	}

	results, err := c.cql(ctx, fmt.Sprintf("issue = %s", issueKey), limit)
	if err != nil {
		if c.splog != nil {
			c.splog.Warn("Could not search Confluence for pages related to %s: %v", issueKey, err)
		}
		return []model.DocumentReference{}
	}

	docs := make([]model.DocumentReference, 0, len(results))
	for _, r := range results {
		if limit > 0 && len(docs) >= limit {
			break
		}
		docs = append(docs, model.DocumentReference{
			Title: r.Title,
			URL:   c.PageURL(r.Space.Key, r.ID),
		})
	}
	return docs
}

func (c *Client) cql(ctx context.Context, cql string, limit int) ([]content, error) {
	query := url.Values{
		"cql":    {cql},
		"expand": {"content.space,content.version"},
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var result searchResponse
	if err := c.do(ctx, http.MethodGet, "/rest/api/search", query, nil, &result); err != nil {
		return nil, err
	}

	contents := make([]content, 0, len(result.Results))
	for _, r := range result.Results {
		contents = append(contents, r.Content)
	}
	return contents, nil
}

// statusError is a non-2xx response
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// classify maps a transport failure to a classified error; 404 becomes NotFound
func classify(err error, message string) error {
	if se, ok := err.(*statusError); ok && se.StatusCode == http.StatusNotFound {
		return tberrors.New(tberrors.KindNotFound, message, err)
	}
	return tberrors.New(tberrors.KindUpstreamFailed, message, err)
}

func toPage(c content) *model.Page {
	page := &model.Page{
		ID:       c.ID,
		Title:    c.Title,
		SpaceKey: c.Space.Key,
		Version:  c.Version.Number,
	}
	if c.Body != nil && c.Body.Storage != nil {
		body := c.Body.Storage.Value
		page.Body = &body
	}
	return page
}

// escapeCQL escapes a value for use inside a double-quoted CQL string
func escapeCQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
