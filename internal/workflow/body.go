package workflow

import (
	"fmt"
	"strings"

	"ticketbridge.dev/ticketbridge/internal/model"
)

// BranchPrefix is prepended to the lowercased ticket key
const BranchPrefix = "feature/"

const (
	unknownPlaceholder     = "unknown"
	unassignedPlaceholder  = "unassigned"
	noDescriptionText      = "No description provided."
	noRelatedDocumentsText = "No related documentation found."
)

// BranchName derives the source branch for a ticket. The same key always
// yields the same branch, so a second run fails at branch creation.
func BranchName(ticketKey string) string {
	return BranchPrefix + strings.ToLower(ticketKey)
}

// ComposeTitle builds the pull request title
func ComposeTitle(ticket model.TicketSummary) string {
	return fmt.Sprintf("[%s] %s", ticket.Key, ticket.Title)
}

// ComposeBody builds the pull request description from the ticket and its related documents
func ComposeBody(ticket model.TicketSummary, docs []model.DocumentReference) string {
	var b strings.Builder

	b.WriteString("## Jira Ticket Details\n")
	fmt.Fprintf(&b, "- **Key**: %s\n", ticket.Key)
	fmt.Fprintf(&b, "- **Type**: %s\n", orDefault(ticket.Type, unknownPlaceholder))
	fmt.Fprintf(&b, "- **Priority**: %s\n", valueOr(ticket.Priority, unknownPlaceholder))
	fmt.Fprintf(&b, "- **Assignee**: %s\n", valueOr(ticket.Assignee, unassignedPlaceholder))

	b.WriteString("\n## Description\n")
	b.WriteString(valueOr(ticket.Description, noDescriptionText))
	b.WriteString("\n")

	b.WriteString("\n## Related Documentation\n")
	if len(docs) == 0 {
		b.WriteString(noRelatedDocumentsText)
		b.WriteString("\n")
	}
	for _, doc := range docs {
		fmt.Fprintf(&b, "- [%s](%s)\n", doc.Title, doc.URL)
	}

	return b.String()
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return orDefault(*s, fallback)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
