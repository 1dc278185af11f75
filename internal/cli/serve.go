package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ticketbridge.dev/ticketbridge/internal/runtime"
	"ticketbridge.dev/ticketbridge/internal/server"
)

// newServeCmd creates the serve command
func newServeCmd(rf *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Services that are not configured or fail to connect are reported as
disconnected by /health; the routes that need them answer with an error.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, rf, func(ctx *runtime.Context) error {
				if addr == "" {
					addr = ctx.Config.Server.Addr
				}

				sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				return server.NewFromContext(ctx, addr).Run(sigCtx)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from TICKETBRIDGE_ADDR or :8000)")

	return cmd
}

