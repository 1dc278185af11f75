package main

import (
	"fmt"
	"os"

	"ticketbridge.dev/ticketbridge/internal/cli"
	"ticketbridge.dev/ticketbridge/internal/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := cli.NewRootCmd(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, tui.ColorRed("Error: "+err.Error()))
		os.Exit(1)
	}
}
