// Package cli implements the ticketbridge command line.
package cli

import (
	"github.com/spf13/cobra"
)

// rootFlags are shared by every subcommand
type rootFlags struct {
	configPath string
	debug      bool
}

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	f := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "ticketbridge",
		Short: "Turn Jira tickets into GitHub pull requests",
		Long: `ticketbridge connects Jira, Confluence and GitHub.

It creates a feature branch and a pull request for a Jira ticket, linking the
Confluence pages related to it. Run it as an HTTP service with 'serve' or use
'process' for a single ticket.

Connection settings come from the environment (JIRA_URL, JIRA_EMAIL,
JIRA_API_TOKEN, CONFLUENCE_URL, GITHUB_TOKEN, GITHUB_HOST) or a YAML file
given with --config or TICKETBRIDGE_CONFIG.`,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&f.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCmd(f))
	rootCmd.AddCommand(newProcessCmd(f))
	rootCmd.AddCommand(newHealthCmd(f))
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	return rootCmd
}
