package cli

import (
	"encoding/json"
	"sort"

	"github.com/spf13/cobra"

	"ticketbridge.dev/ticketbridge/internal/runtime"
	"ticketbridge.dev/ticketbridge/internal/tui"
)

// newHealthCmd creates the health command
func newHealthCmd(rf *rootFlags) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:          "health",
		Short:        "Check the connection to Jira, Confluence and GitHub",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, rf, func(ctx *runtime.Context) error {
				health := ctx.Health()
				if jsonOut {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(health)
				}

				services := make([]string, 0, len(health))
				for service := range health {
					services = append(services, service)
				}
				sort.Strings(services)
				for _, service := range services {
					status := health[service]
					if status == runtime.StatusConnected {
						status = tui.ColorGreen(status)
					} else {
						status = tui.ColorRed(status)
					}
					ctx.Splog.Info("%-11s %s", service, status)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the status as JSON")

	return cmd
}
