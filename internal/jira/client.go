// Package jira is the ticket tracker gateway. It wraps go-jira and translates
// issues into the model types used by the workflow and the HTTP layer.
package jira

import (
	"context"
	"fmt"
	"net/http"

	gojira "github.com/andygrunwald/go-jira"

	"ticketbridge.dev/ticketbridge/internal/config"
	tberrors "ticketbridge.dev/ticketbridge/internal/errors"
	"ticketbridge.dev/ticketbridge/internal/model"
)

const (
	serviceName = "Jira"

	// DefaultSearchLimit caps issue search results when the caller gives no limit
	DefaultSearchLimit = 50
)

// Client is a long-lived Jira connection. A nil *Client is valid and reports
// itself as disconnected; every call on it fails with an Unavailable error.
type Client struct {
	api  *gojira.Client
	user string
}

// Connect creates a Jira client and verifies the connection by fetching the current user
func Connect(ctx context.Context, cfg config.JiraConfig) (*Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("JIRA_URL, JIRA_EMAIL and JIRA_API_TOKEN are required")
	}

	tp := gojira.BasicAuthTransport{
		Username: cfg.Email,
		Password: cfg.APIToken,
	}
	api, err := gojira.NewClient(tp.Client(), cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Jira client: %w", err)
	}

	self, _, err := api.User.GetSelfWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify Jira connection: %w", err)
	}

	return &Client{
		api:  api,
		user: userName(self),
	}, nil
}

// Connected reports whether the connection was established
func (c *Client) Connected() bool {
	return c != nil && c.api != nil
}

// CurrentUser returns the user the connection was verified as
func (c *Client) CurrentUser() string {
	if !c.Connected() {
		return ""
	}
	return c.user
}

// FetchTicket fetches the workflow view of an issue
func (c *Client) FetchTicket(ctx context.Context, key string) (*model.TicketSummary, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	issue, resp, err := c.api.Issue.GetWithContext(ctx, key, nil)
	if err != nil {
		return nil, classify(resp, err, fmt.Sprintf("issue %s", key))
	}

	return toTicketSummary(issue), nil
}

// GetIssue fetches an issue by key
func (c *Client) GetIssue(ctx context.Context, key string) (*model.Issue, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	issue, resp, err := c.api.Issue.GetWithContext(ctx, key, nil)
	if err != nil {
		return nil, classify(resp, err, fmt.Sprintf("issue %s", key))
	}

	result := toIssue(*issue)
	return &result, nil
}

// SearchIssues runs a JQL query, returning at most maxResults issues
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) ([]model.Issue, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}
	if maxResults <= 0 {
		maxResults = DefaultSearchLimit
	}

	issues, resp, err := c.api.Issue.SearchWithContext(ctx, jql, &gojira.SearchOptions{
		MaxResults: maxResults,
		Fields:     []string{"summary", "description", "status"},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusBadRequest {
			return nil, tberrors.New(tberrors.KindBadRequest, "failed to search issues", err)
		}
		return nil, tberrors.New(tberrors.KindUpstreamFailed, "failed to search issues", err)
	}

	result := make([]model.Issue, 0, len(issues))
	for _, issue := range issues {
		result = append(result, toIssue(issue))
	}
	return result, nil
}

// ListProjects lists the projects visible to the connected user
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	projects, _, err := c.api.Project.GetListWithContext(ctx)
	if err != nil {
		return nil, tberrors.New(tberrors.KindUpstreamFailed, "failed to fetch projects", err)
	}

	result := make([]model.Project, 0)
	if projects == nil {
		return result, nil
	}
	for _, p := range *projects {
		result = append(result, model.Project{Key: p.Key, Name: p.Name})
	}
	return result, nil
}

// classify maps a go-jira failure to a classified error
func classify(resp *gojira.Response, err error, what string) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return tberrors.New(tberrors.KindNotFound, what+" not found", err)
	}
	return tberrors.New(tberrors.KindUpstreamFailed, "failed to fetch "+what, err)
}

func toTicketSummary(issue *gojira.Issue) *model.TicketSummary {
	summary := &model.TicketSummary{Key: issue.Key}
	fields := issue.Fields
	if fields == nil {
		return summary
	}

	summary.Title = fields.Summary
	summary.Description = model.StringPtr(fields.Description)
	summary.Type = fields.Type.Name
	if fields.Status != nil {
		summary.Status = fields.Status.Name
	}
	if fields.Priority != nil {
		summary.Priority = model.StringPtr(fields.Priority.Name)
	}
	if fields.Assignee != nil {
		summary.Assignee = model.StringPtr(fields.Assignee.DisplayName)
	}
	return summary
}

func toIssue(issue gojira.Issue) model.Issue {
	result := model.Issue{Key: issue.Key}
	if issue.Fields == nil {
		return result
	}
	result.Summary = issue.Fields.Summary
	result.Description = model.StringPtr(issue.Fields.Description)
	if issue.Fields.Status != nil {
		result.Status = issue.Fields.Status.Name
	}
	return result
}

func userName(u *gojira.User) string {
	if u == nil {
		return ""
	}
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Name != "":
		return u.Name
	}
	return u.EmailAddress
}
