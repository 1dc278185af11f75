// Package github is the code host gateway. It wraps go-github and translates
// repositories and pull requests into the model types.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"ticketbridge.dev/ticketbridge/internal/config"
	tberrors "ticketbridge.dev/ticketbridge/internal/errors"
	"ticketbridge.dev/ticketbridge/internal/model"
)

const (
	serviceName = "GitHub"

	perPage = 100
)

// Client is a long-lived GitHub connection. A nil *Client is valid and reports
// itself as disconnected; every call on it fails with an Unavailable error.
type Client struct {
	api   *github.Client
	login string
}

// Connect creates a GitHub client and verifies the token by fetching the authenticated user
func Connect(ctx context.Context, cfg config.GitHubConfig) (*Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("GITHUB_TOKEN is required")
	}

	api, err := createGitHubClient(ctx, cfg.Host, cfg.Token)
	if err != nil {
		return nil, err
	}

	client, err := NewClientWithAPI(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("failed to verify GitHub connection: %w", err)
	}
	return client, nil
}

// NewClientWithAPI wraps an existing go-github client, verifying it with GET /user
func NewClientWithAPI(ctx context.Context, api *github.Client) (*Client, error) {
	user, _, err := api.Users.Get(ctx, "")
	if err != nil {
		return nil, err
	}
	return &Client{api: api, login: user.GetLogin()}, nil
}

// createGitHubClient creates an oauth2-authenticated client, pointing it at the
// Enterprise API endpoints when hostname is not github.com
func createGitHubClient(ctx context.Context, hostname, token string) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	if hostname == "" || hostname == config.DefaultGitHubHost {
		return client, nil
	}

	baseURL, err := url.Parse(fmt.Sprintf("https://%s/api/v3/", hostname))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL for hostname %s: %w", hostname, err)
	}
	uploadURL, err := url.Parse(fmt.Sprintf("https://%s/api/uploads/", hostname))
	if err != nil {
		return nil, fmt.Errorf("failed to parse upload URL for hostname %s: %w", hostname, err)
	}
	client.BaseURL = baseURL
	client.UploadURL = uploadURL
	return client, nil
}

// Connected reports whether the connection was established
func (c *Client) Connected() bool {
	return c != nil && c.api != nil
}

// CurrentUser returns the login the token belongs to
func (c *Client) CurrentUser() string {
	if !c.Connected() {
		return ""
	}
	return c.login
}

// ResolveRepository looks up a repository and its default branch
func (c *Client) ResolveRepository(ctx context.Context, owner, name string) (*model.RepositoryHandle, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	repo, _, err := c.api.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, tberrors.New(tberrors.KindRepositoryNotFound,
			fmt.Sprintf("repository %s/%s not found", owner, name), err)
	}

	return &model.RepositoryHandle{
		Owner:         owner,
		Name:          name,
		FullName:      repo.GetFullName(),
		DefaultBranch: repo.GetDefaultBranch(),
		HTMLURL:       repo.GetHTMLURL(),
	}, nil
}

// CreateBranch creates branch at the head commit of the repository's default branch
func (c *Client) CreateBranch(ctx context.Context, repo model.RepositoryHandle, branch string) error {
	if !c.Connected() {
		return tberrors.NewUnavailableError(serviceName)
	}

	if repo.DefaultBranch == "" {
		return tberrors.Newf(tberrors.KindBranchCreationFailed,
			"repository %s/%s has no default branch", repo.Owner, repo.Name)
	}

	base, _, err := c.api.Git.GetRef(ctx, repo.Owner, repo.Name, "heads/"+repo.DefaultBranch)
	if err != nil {
		return tberrors.New(tberrors.KindBranchCreationFailed,
			fmt.Sprintf("failed to resolve default branch %s", repo.DefaultBranch), err)
	}

	_, _, err = c.api.Git.CreateRef(ctx, repo.Owner, repo.Name, &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: base.GetObject().SHA},
	})
	if err != nil {
		return tberrors.New(tberrors.KindBranchCreationFailed,
			fmt.Sprintf("failed to create branch %s", branch), err)
	}
	return nil
}

// OpenChangeRequest opens a pull request from draft.SourceBranch into draft.TargetBranch
func (c *Client) OpenChangeRequest(ctx context.Context, repo model.RepositoryHandle, draft model.ChangeRequestDraft) (*model.ChangeRequestHandle, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	pr, _, err := c.api.PullRequests.Create(ctx, repo.Owner, repo.Name, &github.NewPullRequest{
		Title: github.String(draft.Title),
		Body:  github.String(draft.Body),
		Head:  github.String(draft.SourceBranch),
		Base:  github.String(draft.TargetBranch),
	})
	if err != nil {
		return nil, tberrors.New(tberrors.KindChangeRequestCreationFailed,
			fmt.Sprintf("failed to create pull request for %s", draft.SourceBranch), err)
	}

	return &model.ChangeRequestHandle{
		URL:    pr.GetHTMLURL(),
		Number: pr.GetNumber(),
	}, nil
}

// ListRepositories lists every repository of the authenticated user
func (c *Client) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	opts := &github.RepositoryListByAuthenticatedUserOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	var repos []model.Repository
	for {
		page, resp, err := c.api.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, classify(err, "failed to list repositories")
		}
		for _, r := range page {
			repos = append(repos, toRepository(r))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if repos == nil {
		repos = []model.Repository{}
	}
	return repos, nil
}

// CreateRepository creates a repository owned by the authenticated user
func (c *Client) CreateRepository(ctx context.Context, req model.CreateRepositoryRequest) (*model.Repository, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	created, _, err := c.api.Repositories.Create(ctx, "", &github.Repository{
		Name:        github.String(req.Name),
		Description: req.Description,
		Private:     github.Bool(req.Private),
		AutoInit:    req.AutoInit,
	})
	if err != nil {
		return nil, tberrors.New(tberrors.KindBadRequest,
			fmt.Sprintf("failed to create repository %s", req.Name), err)
	}

	repo := toRepository(created)
	return &repo, nil
}

// ListPullRequests lists every pull request of a repository regardless of state
func (c *Client) ListPullRequests(ctx context.Context, owner, name string) ([]model.PullRequest, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	opts := &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	prs := []model.PullRequest{}
	for {
		page, resp, err := c.api.PullRequests.List(ctx, owner, name, opts)
		if err != nil {
			return nil, classify(err, fmt.Sprintf("failed to list pull requests for %s/%s", owner, name))
		}
		for _, pr := range page {
			prs = append(prs, toPullRequest(pr))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return prs, nil
}

// CreatePullRequest opens a pull request
func (c *Client) CreatePullRequest(ctx context.Context, owner, name string, req model.CreatePullRequestRequest) (*model.PullRequest, error) {
	if !c.Connected() {
		return nil, tberrors.NewUnavailableError(serviceName)
	}

	created, _, err := c.api.PullRequests.Create(ctx, owner, name, &github.NewPullRequest{
		Title: github.String(req.Title),
		Body:  req.Body,
		Head:  github.String(req.Head),
		Base:  github.String(req.Base),
	})
	if err != nil {
		return nil, tberrors.New(tberrors.KindBadRequest,
			fmt.Sprintf("failed to create pull request %s -> %s", req.Head, req.Base), err)
	}

	pr := toPullRequest(created)
	return &pr, nil
}

// classify maps a go-github error to a classified error; 404 becomes NotFound
func classify(err error, message string) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return tberrors.New(tberrors.KindNotFound, message, err)
	}
	return tberrors.New(tberrors.KindUpstreamFailed, message, err)
}

func toRepository(r *github.Repository) model.Repository {
	return model.Repository{
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.Description,
		HTMLURL:     r.GetHTMLURL(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Language:    r.Language,
	}
}

func toPullRequest(pr *github.PullRequest) model.PullRequest {
	return model.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		State:     pr.GetState(),
		HTMLURL:   pr.GetHTMLURL(),
		CreatedAt: formatTimestamp(pr.CreatedAt),
		UpdatedAt: formatTimestamp(pr.UpdatedAt),
		User:      pr.GetUser().GetLogin(),
		Body:      pr.Body,
	}
}

func formatTimestamp(ts *github.Timestamp) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
