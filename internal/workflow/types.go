// Package workflow turns a ticket into a pull request: fetch the ticket, gather
// related documents, create a branch and open a pull request against the
// repository's default branch.
//
// The steps run strictly in order. Each remote step except the document search
// aborts the run on failure. Nothing is rolled back: a branch created before a
// failed pull request stays in place.
package workflow

import (
	"context"

	"ticketbridge.dev/ticketbridge/internal/model"
)

// TicketGateway fetches tickets from the tracker
type TicketGateway interface {
	Connected() bool
	FetchTicket(ctx context.Context, key string) (*model.TicketSummary, error)
}

// DocumentGateway finds pages related to a ticket. It has no error return:
// implementations degrade to an empty list.
type DocumentGateway interface {
	FindRelatedDocuments(ctx context.Context, key string, limit int) []model.DocumentReference
}

// ChangeHostGateway manages branches and pull requests on the code host
type ChangeHostGateway interface {
	Connected() bool
	ResolveRepository(ctx context.Context, owner, name string) (*model.RepositoryHandle, error)
	CreateBranch(ctx context.Context, repo model.RepositoryHandle, branch string) error
	OpenChangeRequest(ctx context.Context, repo model.RepositoryHandle, draft model.ChangeRequestDraft) (*model.ChangeRequestHandle, error)
}

// StatusSuccess is the status of every returned Result
const StatusSuccess = "success"

// Result is the outcome of a successful run
type Result struct {
	Status           string                    `json:"status"`
	Message          string                    `json:"message"`
	ChangeRequestURL string                    `json:"pr_url"`
	Branch           string                    `json:"branch"`
	Ticket           model.TicketSummary       `json:"issue_details"`
	RelatedDocs      []model.DocumentReference `json:"related_docs"`
}
