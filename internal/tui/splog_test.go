package tui

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplog(t *testing.T) {
	t.Run("plain console output has no level prefix", func(t *testing.T) {
		var buf bytes.Buffer
		splog := NewSplogWithWriter(&buf, false)

		splog.Info("created branch %s", "feature/proj-42")
		splog.Debug("hidden")

		require.Equal(t, "created branch feature/proj-42\n", buf.String())
	})

	t.Run("warnings and errors carry markers", func(t *testing.T) {
		var buf bytes.Buffer
		splog := NewSplogWithWriter(&buf, false)

		splog.Warn("document search failed: %s", "timeout")
		splog.Error("boom")

		require.Contains(t, buf.String(), "⚠️  document search failed: timeout")
		require.Contains(t, buf.String(), "❌ boom")
	})

	t.Run("debug mode shows debug messages", func(t *testing.T) {
		var buf bytes.Buffer
		splog := NewSplogWithWriter(&buf, true)

		splog.Debug("step %d", 3)

		require.Equal(t, "step 3\n", buf.String())
	})

	t.Run("quiet suppresses plain output", func(t *testing.T) {
		var buf bytes.Buffer
		splog := NewSplogWithWriter(&buf, false)
		splog.SetQuiet(true)

		splog.Info("nothing")

		require.Empty(t, buf.String())
	})

	t.Run("structured output includes level", func(t *testing.T) {
		var buf bytes.Buffer
		splog, err := NewSplogWithOptions(SplogOptions{Writer: &buf, Structured: true})
		require.NoError(t, err)

		splog.Warn("degraded")

		require.Contains(t, buf.String(), "level=WARN")
		require.Contains(t, buf.String(), "degraded")
	})

	t.Run("file logging writes through lumberjack", func(t *testing.T) {
		var buf bytes.Buffer
		logFile := filepath.Join(t.TempDir(), "logs", "ticketbridge.log")
		splog, err := NewSplogWithOptions(SplogOptions{Writer: &buf, LogFile: logFile})
		require.NoError(t, err)

		splog.Debug("only in file")
		splog.Info("both")
		require.NoError(t, splog.Close())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		require.Contains(t, string(data), "only in file")
		require.Contains(t, string(data), "both")
		require.Equal(t, "both\n", buf.String())
	})
}
