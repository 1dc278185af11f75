package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ticketbridge.dev/ticketbridge/internal/model"
)

func TestBranchName(t *testing.T) {
	t.Parallel()

	for key, want := range map[string]string{
		"PROJ-42":  "feature/proj-42",
		"proj-42":  "feature/proj-42",
		"ABC-1":    "feature/abc-1",
		"Mixed-99": "feature/mixed-99",
	} {
		require.Equal(t, want, BranchName(key))
		require.Equal(t, BranchName(key), BranchName(key))
	}
}

func TestComposeTitle(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[PROJ-42] Fix login bug", ComposeTitle(model.TicketSummary{Key: "PROJ-42", Title: "Fix login bug"}))
}

func TestComposeBody(t *testing.T) {
	t.Parallel()

	t.Run("placeholders for absent fields", func(t *testing.T) {
		t.Parallel()

		body := ComposeBody(model.TicketSummary{Key: "PROJ-42", Title: "Fix login bug"}, nil)
		require.Equal(t, `## Jira Ticket Details
- **Key**: PROJ-42
- **Type**: unknown
- **Priority**: unknown
- **Assignee**: unassigned

## Description
No description provided.

## Related Documentation
No related documentation found.
`, body)
	})

	t.Run("all fields and documents", func(t *testing.T) {
		t.Parallel()

		description := "Support SAML login"
		priority := "High"
		assignee := "Ada Lovelace"
		body := ComposeBody(model.TicketSummary{
			Key:         "PROJ-7",
			Title:       "Add SSO",
			Description: &description,
			Type:        "Story",
			Priority:    &priority,
			Assignee:    &assignee,
		}, []model.DocumentReference{
			{Title: "SSO Design", URL: "https://wiki/1"},
			{Title: "IdP Setup", URL: "https://wiki/2"},
		})
		require.Equal(t, `## Jira Ticket Details
- **Key**: PROJ-7
- **Type**: Story
- **Priority**: High
- **Assignee**: Ada Lovelace

## Description
Support SAML login

## Related Documentation
- [SSO Design](https://wiki/1)
- [IdP Setup](https://wiki/2)
`, body)
	})

	t.Run("blank description uses placeholder", func(t *testing.T) {
		t.Parallel()

		blank := "  "
		body := ComposeBody(model.TicketSummary{Key: "PROJ-1", Description: &blank}, []model.DocumentReference{})
		require.Contains(t, body, "## Description\nNo description provided.\n")
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		ticket := model.TicketSummary{Key: "PROJ-1", Type: "Task"}
		docs := []model.DocumentReference{{Title: "A", URL: "u"}}
		require.Equal(t, ComposeBody(ticket, docs), ComposeBody(ticket, docs))
	})
}
