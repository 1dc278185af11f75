package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ticketbridge.dev/ticketbridge/internal/runtime"
	"ticketbridge.dev/ticketbridge/internal/tui"
	"ticketbridge.dev/ticketbridge/internal/utils"
	"ticketbridge.dev/ticketbridge/internal/workflow"
)

type processFlags struct {
	owner   string
	repo    string
	yes     bool
	jsonOut bool
	open    bool
}

// newProcessCmd creates the process command
func newProcessCmd(rf *rootFlags) *cobra.Command {
	f := &processFlags{}

	cmd := &cobra.Command{
		Use:   "process <TICKET-KEY>",
		Short: "Create a branch and pull request for a Jira ticket",
		Long: `Create a branch and pull request for a Jira ticket.

The branch is named feature/<lowercased key> and is created from the head of
the repository's default branch. The pull request body lists the ticket
details and up to five related Confluence pages.

Running it twice for the same ticket fails at branch creation. A branch created
before a failed pull request is not deleted.`,
		Example:      "  ticketbridge process PROJ-42 --owner acme --repo webapp",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			return run(cmd, rf, func(ctx *runtime.Context) error {
				return executeProcess(cmd, ctx, key, f)
			})
		},
	}

	cmd.Flags().StringVar(&f.owner, "owner", "", "Repository owner")
	cmd.Flags().StringVar(&f.repo, "repo", "", "Repository name")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "Skip confirmation prompt")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&f.open, "open", false, "Open the pull request in a browser")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("repo")

	return cmd
}

func executeProcess(cmd *cobra.Command, ctx *runtime.Context, key string, f *processFlags) error {
	if !f.yes && !f.jsonOut && tui.IsTTY() {
		confirmed, err := tui.PromptConfirm(fmt.Sprintf("Create branch %s and a pull request on %s/%s?",
			workflow.BranchName(key), f.owner, f.repo), true)
		if err != nil {
			return err
		}
		if !confirmed {
			ctx.Splog.Info("Aborted")
			return nil
		}
	}

	result, err := ctx.Workflow.Run(cmd.Context(), key, f.owner, f.repo)
	if err != nil {
		return err
	}

	if f.open {
		if err := utils.OpenBrowser(cmd.Context(), result.ChangeRequestURL); err != nil {
			ctx.Splog.Warn("Could not open browser: %v", err)
		}
	}

	if f.jsonOut {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	printResult(ctx.Splog, result)
	return nil
}

func printResult(splog *tui.Splog, result *workflow.Result) {
	splog.Info("%s %s", tui.ColorGreen("✓"), tui.Bold("Opened pull request for "+result.Ticket.Key))
	splog.Info("  %s", tui.ColorURL(result.ChangeRequestURL))
	splog.Info("  %s %s", tui.ColorDim("branch:"), result.Branch)
	splog.Info("  %s %s", tui.ColorDim("ticket:"), result.Ticket.Title)
	if len(result.RelatedDocs) == 0 {
		splog.Info("  %s", tui.ColorDim("no related documentation"))
		return
	}
	splog.Info("  %s", tui.ColorDim("related documentation:"))
	for _, doc := range result.RelatedDocs {
		splog.Info("    - %s %s", doc.Title, tui.ColorDim(doc.URL))
	}
}
