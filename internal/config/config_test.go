package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "", t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, cfg.Inputs)
	assert.Equal(t, "union.go.tmpl", cfg.Template)
	assert.Equal(t, "github.com/gork-labs/uniongen/pkg/unions", cfg.RuntimeImport)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := `inputs: [./shapes, ./result]
recursive: true
concurrency: 2
log:
  level: debug
watch:
  debounce: 1s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".uniongen.yml"), []byte(file), 0o644))
	t.Setenv("UNIONGEN_CONCURRENCY", "4")
	t.Setenv("UNIONGEN_LOG_FORMAT", "json")

	cfg, err := Load(New(), "", dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"./shapes", "./result"}, cfg.Inputs)
	assert.True(t, cfg.Recursive)
	assert.Equal(t, 4, cfg.Concurrency, "environment overrides the file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schemas: [a.yaml]\ndry_run: true\n"), 0o644))

	cfg, err := Load(New(), path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.yaml"}, cfg.Schemas)
	assert.True(t, cfg.DryRun)

	_, err = Load(New(), filepath.Join(dir, "missing.yaml"), "")
	assert.ErrorContains(t, err, "read config")
}

func TestLoadValidates(t *testing.T) {
	tests := map[string]string{
		"concurrency": "concurrency: 0\n",
		"log level":   "log:\n  level: loud\n",
		"log format":  "log:\n  format: xml\n",
	}
	for name, file := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ".uniongen.yml"), []byte(file), 0o644))

			_, err := Load(New(), "", dir)
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}
