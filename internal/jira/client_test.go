package jira_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"ticketbridge.dev/ticketbridge/internal/config"
	tberrors "ticketbridge.dev/ticketbridge/internal/errors"
	"ticketbridge.dev/ticketbridge/internal/jira"
	"ticketbridge.dev/ticketbridge/testhelpers"
)

func connect(t *testing.T, mock *testhelpers.MockJiraServerConfig) *jira.Client {
	t.Helper()
	server := testhelpers.NewMockJiraServer(t, mock)
	client, err := jira.Connect(context.Background(), config.JiraConfig{
		URL:      server.URL,
		Email:    "bot@acme.io",
		APIToken: "token",
	})
	require.NoError(t, err)
	return client
}

func TestConnect(t *testing.T) {
	t.Run("verifies connection with current user", func(t *testing.T) {
		mock := testhelpers.NewMockJiraServerConfig()
		client := connect(t, mock)

		require.True(t, client.Connected())
		require.Equal(t, "Jira Bot", client.CurrentUser())
		require.Equal(t, 1, mock.RequestCount("GET /rest/api/2/myself"))
	})

	t.Run("fails when credentials are missing", func(t *testing.T) {
		client, err := jira.Connect(context.Background(), config.JiraConfig{URL: "https://jira.example.com"})
		require.Error(t, err)
		require.Nil(t, client)
		require.False(t, client.Connected())
	})

	t.Run("fails when the server rejects the credentials", func(t *testing.T) {
		mock := testhelpers.NewMockJiraServerConfig()
		mock.ErrorResponses["GET /rest/api/2/myself"] = http.StatusUnauthorized
		server := testhelpers.NewMockJiraServer(t, mock)

		client, err := jira.Connect(context.Background(), config.JiraConfig{
			URL:      server.URL,
			Email:    "bot@acme.io",
			APIToken: "wrong",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to verify Jira connection")
		require.Nil(t, client)
	})
}

func TestFetchTicket(t *testing.T) {
	t.Run("maps all fields", func(t *testing.T) {
		mock := testhelpers.NewMockJiraServerConfig()
		mock.AddIssue(testhelpers.JiraIssueFixture{
			Key:         "PROJ-7",
			Summary:     "Add SSO",
			Description: "Support SAML login",
			Status:      "In Progress",
			Type:        "Story",
			Priority:    "High",
			Assignee:    "Ada Lovelace",
		})
		client := connect(t, mock)

		ticket, err := client.FetchTicket(context.Background(), "PROJ-7")
		require.NoError(t, err)
		require.Equal(t, "PROJ-7", ticket.Key)
		require.Equal(t, "Add SSO", ticket.Title)
		require.Equal(t, "In Progress", ticket.Status)
		require.Equal(t, "Story", ticket.Type)
		require.NotNil(t, ticket.Description)
		require.Equal(t, "Support SAML login", *ticket.Description)
		require.NotNil(t, ticket.Priority)
		require.Equal(t, "High", *ticket.Priority)
		require.NotNil(t, ticket.Assignee)
		require.Equal(t, "Ada Lovelace", *ticket.Assignee)
	})

	t.Run("absent optional fields stay nil", func(t *testing.T) {
		mock := testhelpers.NewMockJiraServerConfig()
		mock.AddIssue(testhelpers.JiraIssueFixture{
			Key:     "PROJ-42",
			Summary: "Fix login bug",
			Status:  "To Do",
			Type:    "Bug",
		})
		client := connect(t, mock)

		ticket, err := client.FetchTicket(context.Background(), "PROJ-42")
		require.NoError(t, err)
		require.Nil(t, ticket.Description)
		require.Nil(t, ticket.Priority)
		require.Nil(t, ticket.Assignee)
	})

	t.Run("unknown key is NotFound", func(t *testing.T) {
		client := connect(t, testhelpers.NewMockJiraServerConfig())

		_, err := client.FetchTicket(context.Background(), "NOPE-1")
		require.Error(t, err)
		require.ErrorIs(t, err, tberrors.ErrNotFound)
	})

	t.Run("server error is UpstreamFailed", func(t *testing.T) {
		mock := testhelpers.NewMockJiraServerConfig()
		mock.ErrorResponses["GET /rest/api/2/issue/PROJ-1"] = http.StatusInternalServerError
		client := connect(t, mock)

		_, err := client.FetchTicket(context.Background(), "PROJ-1")
		require.ErrorIs(t, err, tberrors.ErrUpstreamFailed)
	})

	t.Run("nil client is Unavailable", func(t *testing.T) {
		var client *jira.Client

		_, err := client.FetchTicket(context.Background(), "PROJ-1")
		require.ErrorIs(t, err, tberrors.ErrUnavailable)
	})
}

func TestGetIssue(t *testing.T) {
	mock := testhelpers.NewMockJiraServerConfig()
	mock.AddIssue(testhelpers.JiraIssueFixture{Key: "PROJ-1", Summary: "First", Status: "Done", Type: "Task"})
	client := connect(t, mock)

	issue, err := client.GetIssue(context.Background(), "PROJ-1")
	require.NoError(t, err)
	require.Equal(t, "PROJ-1", issue.Key)
	require.Equal(t, "First", issue.Summary)
	require.Equal(t, "Done", issue.Status)
	require.Nil(t, issue.Description)

	_, err = client.GetIssue(context.Background(), "PROJ-404")
	require.ErrorIs(t, err, tberrors.ErrNotFound)
}

func TestSearchIssues(t *testing.T) {
	t.Run("passes jql and limit", func(t *testing.T) {
		mock := testhelpers.NewMockJiraServerConfig()
		mock.AddIssue(testhelpers.JiraIssueFixture{Key: "PROJ-1", Summary: "First", Status: "Done", Type: "Task"})
		mock.AddIssue(testhelpers.JiraIssueFixture{Key: "PROJ-2", Summary: "Second", Status: "To Do", Type: "Task"})
		mock.AddIssue(testhelpers.JiraIssueFixture{Key: "PROJ-3", Summary: "Third", Status: "To Do", Type: "Task"})
		client := connect(t, mock)

		issues, err := client.SearchIssues(context.Background(), "project = PROJ", 2)
		require.NoError(t, err)
		require.Len(t, issues, 2)
		require.Equal(t, "PROJ-1", issues[0].Key)
		require.Equal(t, "project = PROJ", mock.LastJQL)
		require.Equal(t, 2, mock.LastMaxResults)
	})

	t.Run("defaults limit", func(t *testing.T) {
		mock := testhelpers.NewMockJiraServerConfig()
		client := connect(t, mock)

		issues, err := client.SearchIssues(context.Background(), "project = PROJ", 0)
		require.NoError(t, err)
		require.Empty(t, issues)
		require.Equal(t, jira.DefaultSearchLimit, mock.LastMaxResults)
	})

	t.Run("invalid jql is BadRequest", func(t *testing.T) {
		mock := testhelpers.NewMockJiraServerConfig()
		mock.ErrorResponses["GET /rest/api/2/search"] = http.StatusBadRequest
		client := connect(t, mock)

		_, err := client.SearchIssues(context.Background(), "project ===", 10)
		require.ErrorIs(t, err, tberrors.ErrBadRequest)
	})
}

func TestListProjects(t *testing.T) {
	mock := testhelpers.NewMockJiraServerConfig()
	mock.Projects["OPS"] = "Operations"
	mock.Projects["PROJ"] = "Project"
	client := connect(t, mock)

	projects, err := client.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Equal(t, "OPS", projects[0].Key)
	require.Equal(t, "Operations", projects[0].Name)
}
