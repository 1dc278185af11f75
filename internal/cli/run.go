package cli

import (
	"os"

	"github.com/spf13/cobra"

	"ticketbridge.dev/ticketbridge/internal/config"
	"ticketbridge.dev/ticketbridge/internal/runtime"
	"ticketbridge.dev/ticketbridge/internal/tui"
)

// run loads configuration, connects the gateways and hands the runtime context to fn
func run(cmd *cobra.Command, f *rootFlags, fn func(ctx *runtime.Context) error) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.debug {
		cfg.Log.Debug = true
	}

	out := cmd.OutOrStdout()
	stdout, isStdout := out.(*os.File)
	splog, err := tui.NewSplogWithOptions(tui.SplogOptions{
		Writer:     out,
		LogFile:    cfg.Log.File,
		Debug:      cfg.Log.Debug,
		Structured: isStdout && !tui.IsTerminal(stdout),
	})
	if err != nil {
		return err
	}
	defer func() { _ = splog.Close() }()

	return fn(runtime.NewContext(cmd.Context(), cfg, splog))
}
