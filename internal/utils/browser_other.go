//go:build !darwin && !linux && !windows

package utils

import (
	"context"
	"os/exec"
)

func browserCommand(ctx context.Context, target string) *exec.Cmd {
	return exec.CommandContext(ctx, "xdg-open", target)
}
