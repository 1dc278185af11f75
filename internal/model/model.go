// Package model holds the data types shared between the service gateways,
// the workflow and the HTTP layer.
//
// These are simplified structs to avoid coupling callers to the Jira,
// Confluence and go-github client libraries.
package model

// TicketSummary is a snapshot of a ticket, fetched fresh for every workflow run
type TicketSummary struct {
	Key         string  `json:"key"`
	Title       string  `json:"summary"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Type        string  `json:"type"`
	Priority    *string `json:"priority"`
	Assignee    *string `json:"assignee"`
}

// DocumentReference points at a documentation page related to a ticket
type DocumentReference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ChangeRequestDraft is the payload for opening a pull request
type ChangeRequestDraft struct {
	Title        string
	Body         string
	SourceBranch string
	TargetBranch string
}

// RepositoryHandle identifies a resolved repository on the code host
type RepositoryHandle struct {
	Owner         string
	Name          string
	FullName      string
	DefaultBranch string
	HTMLURL       string
}

// ChangeRequestHandle identifies an opened pull request
type ChangeRequestHandle struct {
	URL    string
	Number int
}

// Issue is the tracker issue shape returned by the issue endpoints
type Issue struct {
	Key         string  `json:"key"`
	Summary     string  `json:"summary"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

// Project is a tracker project
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Space is a wiki space
type Space struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Page is a wiki page including its storage-format body
type Page struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	SpaceKey string  `json:"space_key"`
	Version  int     `json:"version"`
	Body     *string `json:"body"`
}

// PageSummary is a wiki page as returned by search
type PageSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	SpaceKey string `json:"space_key"`
	Version  int    `json:"version"`
}

// CreatePageRequest describes a new wiki page
type CreatePageRequest struct {
	Title    string  `json:"title"`
	SpaceKey string  `json:"space_key"`
	Body     string  `json:"body"`
	ParentID *string `json:"parent_id,omitempty"`
}

// Repository is a code host repository
type Repository struct {
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Description *string `json:"description"`
	HTMLURL     string  `json:"html_url"`
	Stars       int     `json:"stars"`
	Forks       int     `json:"forks"`
	Language    *string `json:"language"`
}

// CreateRepositoryRequest describes a new repository
type CreateRepositoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Private     bool    `json:"private"`
	AutoInit    *bool   `json:"auto_init,omitempty"`
}

// PullRequest is a code host pull request
type PullRequest struct {
	Number    int     `json:"number"`
	Title     string  `json:"title"`
	State     string  `json:"state"`
	HTMLURL   string  `json:"html_url"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	User      string  `json:"user"`
	Body      *string `json:"body"`
}

// CreatePullRequestRequest describes a new pull request
type CreatePullRequestRequest struct {
	Title string  `json:"title"`
	Body  *string `json:"body,omitempty"`
	Head  string  `json:"head"`
	Base  string  `json:"base"`
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
