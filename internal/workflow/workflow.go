package workflow

import (
	"context"
	"fmt"
	"io"
	"strings"

	tberrors "ticketbridge.dev/ticketbridge/internal/errors"
	"ticketbridge.dev/ticketbridge/internal/model"
	"ticketbridge.dev/ticketbridge/internal/tui"
)

// RelatedDocumentsLimit caps the documents listed in a pull request body
const RelatedDocumentsLimit = 5

const successMessage = "PR created successfully"

// Orchestrator runs the ticket-to-pull-request workflow. Its gateways are
// shared across concurrent runs and never modified after construction.
type Orchestrator struct {
	tickets TicketGateway
	docs    DocumentGateway
	host    ChangeHostGateway
	splog   *tui.Splog
}

// New creates an Orchestrator. docs may be nil, in which case no documents are searched.
func New(tickets TicketGateway, docs DocumentGateway, host ChangeHostGateway, splog *tui.Splog) *Orchestrator {
	if splog == nil {
		splog = tui.NewSplogWithWriter(io.Discard, false)
	}
	return &Orchestrator{
		tickets: tickets,
		docs:    docs,
		host:    host,
		splog:   splog,
	}
}

// Run turns ticketKey into a pull request on repoOwner/repoName
func (o *Orchestrator) Run(ctx context.Context, ticketKey, repoOwner, repoName string) (*Result, error) {
	if err := o.checkConnected(); err != nil {
		return nil, err
	}

	o.splog.Debug("Fetching ticket %s", ticketKey)
	ticket, err := o.tickets.FetchTicket(ctx, ticketKey)
	if err != nil {
		return nil, tberrors.New(tberrors.KindTicketFetchFailed,
			fmt.Sprintf("failed to fetch ticket %s", ticketKey), err)
	}

	docs := o.relatedDocuments(ctx, ticketKey)

	o.splog.Debug("Resolving repository %s/%s", repoOwner, repoName)
	repo, err := o.host.ResolveRepository(ctx, repoOwner, repoName)
	if err != nil {
		return nil, asKind(tberrors.KindRepositoryNotFound, err,
			fmt.Sprintf("repository %s/%s not found", repoOwner, repoName))
	}

	branch := BranchName(ticketKey)
	o.splog.Debug("Creating branch %s from %s", branch, repo.DefaultBranch)
	if err := o.host.CreateBranch(ctx, *repo, branch); err != nil {
		return nil, asKind(tberrors.KindBranchCreationFailed, err,
			fmt.Sprintf("failed to create branch %s", branch))
	}

	draft := model.ChangeRequestDraft{
		Title:        ComposeTitle(*ticket),
		Body:         ComposeBody(*ticket, docs),
		SourceBranch: branch,
		TargetBranch: repo.DefaultBranch,
	}

	o.splog.Debug("Opening pull request %s -> %s", draft.SourceBranch, draft.TargetBranch)
	pr, err := o.host.OpenChangeRequest(ctx, *repo, draft)
	if err != nil {
		// the branch created above is left in place
		return nil, asKind(tberrors.KindChangeRequestCreationFailed, err,
			fmt.Sprintf("failed to create pull request for %s", branch))
	}

	return &Result{
		Status:           StatusSuccess,
		Message:          successMessage,
		ChangeRequestURL: pr.URL,
		Branch:           branch,
		Ticket:           *ticket,
		RelatedDocs:      docs,
	}, nil
}

func (o *Orchestrator) checkConnected() error {
	var missing []string
	if o.tickets == nil || !o.tickets.Connected() {
		missing = append(missing, "Jira")
	}
	if o.host == nil || !o.host.Connected() {
		missing = append(missing, "GitHub")
	}
	if len(missing) > 0 {
		return tberrors.NewServiceUnavailableError(strings.Join(missing, " or "))
	}
	return nil
}

// relatedDocuments never fails the run. A panicking gateway is treated like
// any other search failure.
func (o *Orchestrator) relatedDocuments(ctx context.Context, ticketKey string) (docs []model.DocumentReference) {
	docs = []model.DocumentReference{}
	if o.docs == nil {
		return docs
	}

	defer func() {
		if r := recover(); r != nil {
			o.splog.Warn("Related document search for %s failed: %v", ticketKey, r)
			docs = []model.DocumentReference{}
		}
	}()

	o.splog.Debug("Searching related documents for %s", ticketKey)
	if found := o.docs.FindRelatedDocuments(ctx, ticketKey, RelatedDocumentsLimit); found != nil {
		docs = found
	}
	return docs
}

// asKind keeps an error already classified as kind and wraps anything else in it
func asKind(kind tberrors.Kind, err error, message string) error {
	if tberrors.KindOf(err) == kind {
		return err
	}
	return tberrors.New(kind, message, err)
}
