package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"ticketbridge.dev/ticketbridge/internal/cli"
	tberrors "ticketbridge.dev/ticketbridge/internal/errors"
)

// clearEnv makes sure no ambient credentials leak into the command
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TICKETBRIDGE_CONFIG", "TICKETBRIDGE_ADDR", "TICKETBRIDGE_LOG_FILE", "DEBUG",
		"JIRA_URL", "JIRA_EMAIL", "JIRA_API_TOKEN",
		"CONFLUENCE_URL", "CONFLUENCE_EMAIL", "CONFLUENCE_API_TOKEN",
		"GITHUB_TOKEN", "GITHUB_HOST",
	} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := cli.NewRootCmd("1.2.3", "abc123", "2026-10-01")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, "ticketbridge 1.2.3 (commit abc123, built 2026-10-01)\n", out)
}

func TestHealthCommand(t *testing.T) {
	clearEnv(t)

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "health", "--json")
		require.NoError(t, err)

		var health map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &health))
		require.Equal(t, map[string]string{
			"jira":       "disconnected",
			"confluence": "disconnected",
			"github":     "disconnected",
		}, health)
	})

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "health")
		require.NoError(t, err)
		require.Contains(t, out, "confluence")
		require.Contains(t, out, "github")
		require.Contains(t, out, "jira")
		require.Contains(t, out, "disconnected")
	})
}

func TestProcessCommand(t *testing.T) {
	clearEnv(t)

	t.Run("requires owner and repo", func(t *testing.T) {
		_, err := execute(t, "process", "PROJ-42")
		require.Error(t, err)
		require.Contains(t, err.Error(), "owner")
	})

	t.Run("requires a ticket key", func(t *testing.T) {
		_, err := execute(t, "process", "--owner", "acme", "--repo", "webapp")
		require.Error(t, err)
	})

	t.Run("services not connected", func(t *testing.T) {
		_, err := execute(t, "process", "PROJ-42", "--owner", "acme", "--repo", "webapp", "--yes")
		require.Error(t, err)
		require.Equal(t, tberrors.KindServiceUnavailable, tberrors.KindOf(err))
	})
}

func TestMissingConfigFile(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "health", "--config", t.TempDir()+"/missing.yaml")
	require.Error(t, err)
}
