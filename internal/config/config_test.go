package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	require.NoError(t, Default().Validate())
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), DefaultFile)

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(path, true)
	assert.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), DefaultFile, `
source_root: src/main/java
targets:
  - com.example.Foo#bar(int)
classpath: [lib/a.jar]
oracle_timeout: 30s
max_iterations: 10
batches:
  - name: first
    output_dir: out/first
    targets: [com.example.A#a()]
neo4j:
  uri: bolt://db:7687
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "src/main/java", cfg.SourceRoot)
	assert.Equal(t, "jslice-out", cfg.OutputDir)
	assert.Equal(t, []string{"com.example.Foo#bar(int)"}, cfg.Targets)
	assert.Equal(t, []string{"lib/a.jar"}, cfg.Classpath)
	assert.Equal(t, 30*time.Second, cfg.OracleTimeout)
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, 2, cfg.StallLimit)
	require.Len(t, cfg.Batches, 1)
	assert.Equal(t, "out/first", cfg.Batches[0].OutputDir)
	assert.Equal(t, "bolt://db:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.User)
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "syntax", content: "targets: [", want: "parsing"},
		{name: "iterations", content: "max_iterations: 0", want: "MaxIterations"},
		{name: "log level", content: "log_level: chatty", want: "LogLevel"},
		{name: "empty batch", content: "batches:\n  - name: b\n    output_dir: out\n", want: "Targets"},
		{name: "blank target", content: "targets: ['']", want: "Targets[0]"},
		{name: "bad uri", content: "neo4j:\n  uri: not a uri\n", want: "URI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, t.TempDir(), DefaultFile, tt.content)
			_, err := Load(path, true)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
