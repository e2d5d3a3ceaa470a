package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEmitsRenamedKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Service: "spaced", Env: "test", Output: &buf})
	logger.Info("claimed", slog.String("user", "0xabc"), MaskField("token", "secret"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "claimed", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "spaced", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "0xabc", line["user"])
	require.Equal(t, RedactedValue, line["token"])
	require.Contains(t, line, "timestamp")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Service: "spaced", Level: "warn", Output: &buf})
	logger.Info("hidden")
	require.Zero(t, buf.Len())
	logger.Warn("shown")
	require.NotZero(t, buf.Len())
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestAllowlistSorted(t *testing.T) {
	keys := RedactionAllowlist()
	require.Contains(t, keys, "user")
	for i := 1; i < len(keys); i++ {
		require.Less(t, keys[i-1], keys[i])
	}
	require.Equal(t, "", MaskField("token", "").Value.String())
}
