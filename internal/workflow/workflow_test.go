package workflow_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	tberrors "ticketbridge.dev/ticketbridge/internal/errors"
	"ticketbridge.dev/ticketbridge/internal/model"
	"ticketbridge.dev/ticketbridge/internal/tui"
	"ticketbridge.dev/ticketbridge/internal/workflow"
)

// fakeTickets is a recording TicketGateway
type fakeTickets struct {
	mu        sync.Mutex
	connected bool
	tickets   map[string]model.TicketSummary
	err       error
	calls     int
}

func (f *fakeTickets) Connected() bool { return f.connected }

func (f *fakeTickets) FetchTicket(_ context.Context, key string) (*model.TicketSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ticket, ok := f.tickets[key]
	if !ok {
		return nil, tberrors.Newf(tberrors.KindNotFound, "issue %s not found", key)
	}
	return &ticket, nil
}

// fakeDocs is a recording DocumentGateway
type fakeDocs struct {
	mu    sync.Mutex
	docs  []model.DocumentReference
	panic bool
	calls int
	limit int
}

func (f *fakeDocs) FindRelatedDocuments(_ context.Context, _ string, limit int) []model.DocumentReference {
	f.mu.Lock()
	f.calls++
	f.limit = limit
	f.mu.Unlock()
	if f.panic {
		panic("wiki exploded")
	}
	return f.docs
}

// fakeHost is a recording ChangeHostGateway
type fakeHost struct {
	mu        sync.Mutex
	connected bool
	repos     map[string]model.RepositoryHandle
	branchErr error
	prErr     error

	resolveCalls int
	branches     []string
	drafts       []model.ChangeRequestDraft
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		connected: true,
		repos: map[string]model.RepositoryHandle{
			"acme/webapp": {Owner: "acme", Name: "webapp", FullName: "acme/webapp", DefaultBranch: "main"},
		},
	}
}

func (f *fakeHost) Connected() bool { return f.connected }

func (f *fakeHost) ResolveRepository(_ context.Context, owner, name string) (*model.RepositoryHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls++
	repo, ok := f.repos[owner+"/"+name]
	if !ok {
		return nil, tberrors.Newf(tberrors.KindRepositoryNotFound, "repository %s/%s not found", owner, name)
	}
	return &repo, nil
}

func (f *fakeHost) CreateBranch(_ context.Context, _ model.RepositoryHandle, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.branchErr != nil {
		return f.branchErr
	}
	f.branches = append(f.branches, branch)
	return nil
}

func (f *fakeHost) OpenChangeRequest(_ context.Context, repo model.RepositoryHandle, draft model.ChangeRequestDraft) (*model.ChangeRequestHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, draft)
	if f.prErr != nil {
		return nil, f.prErr
	}
	return &model.ChangeRequestHandle{
		URL:    "https://github.com/" + repo.FullName + "/pull/1",
		Number: 1,
	}, nil
}

func (f *fakeHost) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolveCalls + len(f.branches) + len(f.drafts)
}

func ptr(s string) *string { return &s }

func newTickets() *fakeTickets {
	return &fakeTickets{
		connected: true,
		tickets: map[string]model.TicketSummary{
			"PROJ-42": {Key: "PROJ-42", Title: "Fix login bug", Status: "To Do", Type: "Bug"},
			"PROJ-7": {
				Key:         "PROJ-7",
				Title:       "Add SSO",
				Description: ptr("Support SAML login"),
				Status:      "In Progress",
				Type:        "Story",
				Priority:    ptr("High"),
				Assignee:    ptr("Ada Lovelace"),
			},
		},
	}
}

func TestRun(t *testing.T) {
	t.Run("PROJ-42 without optional fields or documents", func(t *testing.T) {
		tickets, docs, host := newTickets(), &fakeDocs{}, newFakeHost()
		orch := workflow.New(tickets, docs, host, nil)

		result, err := orch.Run(context.Background(), "PROJ-42", "acme", "webapp")
		require.NoError(t, err)

		require.Equal(t, workflow.StatusSuccess, result.Status)
		require.Equal(t, "PR created successfully", result.Message)
		require.Equal(t, "https://github.com/acme/webapp/pull/1", result.ChangeRequestURL)
		require.Equal(t, "feature/proj-42", result.Branch)
		require.Equal(t, "PROJ-42", result.Ticket.Key)
		require.NotNil(t, result.RelatedDocs)
		require.Empty(t, result.RelatedDocs)

		require.Equal(t, []string{"feature/proj-42"}, host.branches)
		require.Len(t, host.drafts, 1)
		draft := host.drafts[0]
		require.Equal(t, "[PROJ-42] Fix login bug", draft.Title)
		require.Equal(t, "feature/proj-42", draft.SourceBranch)
		require.Equal(t, "main", draft.TargetBranch)
		require.Contains(t, draft.Body, "- **Priority**: unknown\n")
		require.Contains(t, draft.Body, "- **Assignee**: unassigned\n")
		require.Contains(t, draft.Body, "No related documentation found.")
		require.Equal(t, workflow.RelatedDocumentsLimit, docs.limit)
	})

	t.Run("PROJ-7 lists documents in gateway order", func(t *testing.T) {
		docs := &fakeDocs{docs: []model.DocumentReference{
			{Title: "SSO Design", URL: "https://wiki.acme.io/spaces/ENG/pages/101"},
			{Title: "IdP Setup", URL: "https://wiki.acme.io/spaces/OPS/pages/102"},
		}}
		host := newFakeHost()
		orch := workflow.New(newTickets(), docs, host, nil)

		result, err := orch.Run(context.Background(), "PROJ-7", "acme", "webapp")
		require.NoError(t, err)
		require.Equal(t, docs.docs, result.RelatedDocs)

		body := host.drafts[0].Body
		first := "- [SSO Design](https://wiki.acme.io/spaces/ENG/pages/101)\n"
		second := "- [IdP Setup](https://wiki.acme.io/spaces/OPS/pages/102)\n"
		require.Contains(t, body, first)
		require.Contains(t, body, second)
		require.Less(t, strings.Index(body, first), strings.Index(body, second))
		require.NotContains(t, body, "No related documentation found.")
	})

	t.Run("document failure still succeeds with no documents", func(t *testing.T) {
		var logs bytes.Buffer
		docs := &fakeDocs{panic: true}
		host := newFakeHost()
		orch := workflow.New(newTickets(), docs, host, tui.NewSplogWithWriter(&logs, false))

		result, err := orch.Run(context.Background(), "PROJ-42", "acme", "webapp")
		require.NoError(t, err)
		require.NotNil(t, result.RelatedDocs)
		require.Empty(t, result.RelatedDocs)
		require.Equal(t, 1, docs.calls)
		require.Len(t, host.drafts, 1)
		require.Contains(t, logs.String(), "wiki exploded")
	})

	t.Run("without a document gateway", func(t *testing.T) {
		host := newFakeHost()
		orch := workflow.New(newTickets(), nil, host, nil)

		result, err := orch.Run(context.Background(), "PROJ-42", "acme", "webapp")
		require.NoError(t, err)
		require.Empty(t, result.RelatedDocs)
	})

	t.Run("ticket failure makes no host calls", func(t *testing.T) {
		tickets := newTickets()
		tickets.err = errors.New("connection reset")
		docs, host := &fakeDocs{}, newFakeHost()
		orch := workflow.New(tickets, docs, host, nil)

		_, err := orch.Run(context.Background(), "PROJ-42", "acme", "webapp")
		require.ErrorIs(t, err, tberrors.ErrTicketFetchFailed)
		require.Contains(t, err.Error(), "connection reset")
		require.Zero(t, host.totalCalls())
		require.Zero(t, docs.calls)
	})

	t.Run("unknown ticket is TicketFetchFailed caused by NotFound", func(t *testing.T) {
		host := newFakeHost()
		orch := workflow.New(newTickets(), nil, host, nil)

		_, err := orch.Run(context.Background(), "NOPE-1", "acme", "webapp")
		require.ErrorIs(t, err, tberrors.ErrTicketFetchFailed)
		require.ErrorIs(t, err, tberrors.ErrNotFound)
		require.Equal(t, tberrors.KindTicketFetchFailed, tberrors.KindOf(err))
		require.Zero(t, host.totalCalls())
	})

	t.Run("missing repository creates no branch", func(t *testing.T) {
		host := newFakeHost()
		orch := workflow.New(newTickets(), nil, host, nil)

		_, err := orch.Run(context.Background(), "PROJ-42", "acme", "missing")
		require.ErrorIs(t, err, tberrors.ErrRepositoryNotFound)
		require.Equal(t, 1, host.resolveCalls)
		require.Empty(t, host.branches)
		require.Empty(t, host.drafts)
	})

	t.Run("branch failure opens no pull request", func(t *testing.T) {
		host := newFakeHost()
		host.branchErr = errors.New("Reference already exists")
		orch := workflow.New(newTickets(), nil, host, nil)

		_, err := orch.Run(context.Background(), "PROJ-42", "acme", "webapp")
		require.ErrorIs(t, err, tberrors.ErrBranchCreationFailed)
		require.Contains(t, err.Error(), "Reference already exists")
		require.Empty(t, host.drafts)
	})

	t.Run("pull request failure leaves the branch", func(t *testing.T) {
		host := newFakeHost()
		host.prErr = tberrors.New(tberrors.KindChangeRequestCreationFailed, "validation failed", nil)
		orch := workflow.New(newTickets(), nil, host, nil)

		_, err := orch.Run(context.Background(), "PROJ-42", "acme", "webapp")
		require.ErrorIs(t, err, tberrors.ErrChangeRequestCreationFailed)
		require.Equal(t, []string{"feature/proj-42"}, host.branches)
		require.Len(t, host.drafts, 1)
	})

	t.Run("disconnected gateways fail before any remote call", func(t *testing.T) {
		for _, tc := range []struct {
			name            string
			ticketsUp       bool
			hostUp          bool
			expectedMessage string
		}{
			{name: "tracker down", ticketsUp: false, hostUp: true, expectedMessage: "Jira"},
			{name: "host down", ticketsUp: true, hostUp: false, expectedMessage: "GitHub"},
			{name: "both down", ticketsUp: false, hostUp: false, expectedMessage: "Jira or GitHub"},
		} {
			t.Run(tc.name, func(t *testing.T) {
				tickets, docs, host := newTickets(), &fakeDocs{}, newFakeHost()
				tickets.connected = tc.ticketsUp
				host.connected = tc.hostUp
				orch := workflow.New(tickets, docs, host, nil)

				_, err := orch.Run(context.Background(), "PROJ-42", "acme", "webapp")
				require.ErrorIs(t, err, tberrors.ErrServiceUnavailable)
				require.Contains(t, err.Error(), tc.expectedMessage)
				require.Zero(t, tickets.calls)
				require.Zero(t, docs.calls)
				require.Zero(t, host.totalCalls())
			})
		}
	})

	t.Run("second run for the same ticket fails at branch creation", func(t *testing.T) {
		host := &collidingHost{fakeHost: newFakeHost(), existing: map[string]bool{}}
		orch := workflow.New(newTickets(), nil, host, nil)

		_, err := orch.Run(context.Background(), "PROJ-42", "acme", "webapp")
		require.NoError(t, err)

		_, err = orch.Run(context.Background(), "PROJ-42", "acme", "webapp")
		require.ErrorIs(t, err, tberrors.ErrBranchCreationFailed)
		require.Len(t, host.drafts, 1)
	})
}

// collidingHost rejects branches that already exist
type collidingHost struct {
	*fakeHost
	existing map[string]bool
}

func (c *collidingHost) CreateBranch(ctx context.Context, repo model.RepositoryHandle, branch string) error {
	c.mu.Lock()
	exists := c.existing[branch]
	c.existing[branch] = true
	c.mu.Unlock()
	if exists {
		return tberrors.Newf(tberrors.KindBranchCreationFailed, "Reference already exists")
	}
	return c.fakeHost.CreateBranch(ctx, repo, branch)
}
