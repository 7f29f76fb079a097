package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetupWritesJSONToBoth(t *testing.T) {
	t.Parallel()
	var stderr bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "jslice.log")
	logger, cleanup, err := Setup(&stderr, file, slog.LevelInfo)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("sliced", "types", 3)
	cleanup()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(stderr.Bytes(), &rec))
	assert.Equal(t, "sliced", rec["msg"])
	assert.EqualValues(t, 3, rec["types"])

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, stderr.String(), string(data))
}

func TestSetupStderrOnly(t *testing.T) {
	t.Parallel()
	var stderr bytes.Buffer
	logger, cleanup, err := Setup(&stderr, "", slog.LevelWarn)
	require.NoError(t, err)
	defer cleanup()
	logger.Info("quiet")
	assert.Empty(t, stderr.String())
	logger.Warn("loud")
	assert.Contains(t, stderr.String(), `"msg":"loud"`)
}
