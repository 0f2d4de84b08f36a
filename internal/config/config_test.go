package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
source:
  roots: ["/data/corpus"]
sinks:
  csv:
    dir: "/out"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "*.txt", cfg.Source.FilePattern)
	assert.Equal(t, 4, cfg.Pipeline.MaxTransformationPipelines)
	assert.Equal(t, 1000, cfg.Pipeline.TransInQueueMaxSize)
	assert.Equal(t, "csv", cfg.Sinks.CSV.Extension)
	assert.Equal(t, ";", cfg.Sinks.CSV.Separator)
	assert.True(t, cfg.loadedFromFile)
}

func TestLoadConfigRejectsMissingSource(t *testing.T) {
	path := writeConfigFile(t, `
sinks:
  csv:
    dir: "/out"
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsNoSinks(t *testing.T) {
	path := writeConfigFile(t, `
source:
  roots: ["/data/corpus"]
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigEnvironmentOverridesSourceRoots(t *testing.T) {
	path := writeConfigFile(t, `
source:
  roots: ["/data/corpus"]
sinks:
  csv:
    dir: "/out"
`)

	t.Setenv("CORPUSETL_SOURCE_ROOTS", "/a,/b,/c")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b", "/c"}, cfg.Source.Roots)
}

func TestLoadConfigRejectsIncompleteSQLSink(t *testing.T) {
	path := writeConfigFile(t, `
source:
  roots: ["/data/corpus"]
sinks:
  sql:
    dsn: "postgres://x"
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
