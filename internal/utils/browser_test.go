package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ticketbridge.dev/ticketbridge/internal/utils"
)

func TestOpenBrowserRejectsNonHTTP(t *testing.T) {
	t.Parallel()

	for _, target := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "https://", "not a url"} {
		err := utils.OpenBrowser(context.Background(), target)
		require.Error(t, err, target)
		require.Contains(t, err.Error(), "not an http(s) URL")
	}
}
