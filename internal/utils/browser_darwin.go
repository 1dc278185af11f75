//go:build darwin

package utils

import (
	"context"
	"os/exec"
)

func browserCommand(ctx context.Context, target string) *exec.Cmd {
	return exec.CommandContext(ctx, "open", target)
}
