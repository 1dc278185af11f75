package runtime

import (
	"context"

	"ticketbridge.dev/ticketbridge/internal/config"
	"ticketbridge.dev/ticketbridge/internal/confluence"
	"ticketbridge.dev/ticketbridge/internal/github"
	"ticketbridge.dev/ticketbridge/internal/jira"
	"ticketbridge.dev/ticketbridge/internal/tui"
	"ticketbridge.dev/ticketbridge/internal/workflow"
)

// Health values reported per service
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Context provides access to configuration, output and the service gateways
type Context struct {
	Config     *config.Config
	Splog      *tui.Splog
	Jira       *jira.Client
	Confluence *confluence.Client
	GitHub     *github.Client
	Workflow   *workflow.Orchestrator
}

// NewContext connects every configured gateway. Connection failures are
// logged and leave the gateway nil; they never fail start-up.
func NewContext(ctx context.Context, cfg *config.Config, splog *tui.Splog) *Context {
	if splog == nil {
		splog = tui.NewSplog()
	}
	rc := &Context{Config: cfg, Splog: splog}

	if cfg.Jira.Configured() {
		client, err := jira.Connect(ctx, cfg.Jira)
		if err != nil {
			splog.Warn("Failed to connect to Jira: %v", err)
		} else {
			splog.Debug("Connected to Jira as %s", client.CurrentUser())
			rc.Jira = client
		}
	} else {
		splog.Debug("Jira is not configured")
	}

	if cfg.Confluence.Configured() {
		client, err := confluence.Connect(cfg.Confluence, splog)
		if err != nil {
			splog.Warn("Failed to connect to Confluence: %v", err)
		} else {
			splog.Debug("Connected to Confluence at %s", cfg.Confluence.URL)
			rc.Confluence = client
		}
	} else {
		splog.Debug("Confluence is not configured")
	}

	if cfg.GitHub.Configured() {
		client, err := github.Connect(ctx, cfg.GitHub)
		if err != nil {
			splog.Warn("Failed to connect to GitHub: %v", err)
		} else {
			splog.Debug("Connected to GitHub as %s", client.CurrentUser())
			rc.GitHub = client
		}
	} else {
		splog.Debug("GitHub is not configured")
	}

	rc.Workflow = NewWorkflow(rc.Jira, rc.Confluence, rc.GitHub, splog)
	return rc
}

// NewWorkflow builds an orchestrator over concrete gateways. A nil Confluence
// client disables the document search step.
func NewWorkflow(j *jira.Client, c *confluence.Client, g *github.Client, splog *tui.Splog) *workflow.Orchestrator {
	var docs workflow.DocumentGateway
	if c.Connected() {
		docs = c
	}
	return workflow.New(j, docs, g, splog)
}

// Health reports the connection state of each service
func (c *Context) Health() map[string]string {
	return map[string]string{
		"jira":       status(c.Jira.Connected()),
		"confluence": status(c.Confluence.Connected()),
		"github":     status(c.GitHub.Connected()),
	}
}

func status(connected bool) string {
	if connected {
		return StatusConnected
	}
	return StatusDisconnected
}
