package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir which is unavailable before Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "universe.yaml", cfg.Universe.Path)
	assert.Equal(t, 200, cfg.Universe.MaxFunds)
	assert.Equal(t, 3000, cfg.Fetch.IntervalMs)
	assert.Equal(t, 8.0, cfg.Fetch.WidenCap)
	assert.Equal(t, 36, cfg.Fetch.HistoryMonths)
	assert.Equal(t, "section.analysisSection", cfg.Browser.WaitSelector)
	assert.Equal(t, 20, cfg.Browser.TimeoutSecs)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500, cfg.Retry.InitialBackoffMs)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 0.25, cfg.Retry.JitterFraction)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, "funds.xlsx", cfg.Export.Path)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FUNDSCAN_LOG_LEVEL", "debug")
	t.Setenv("FUNDSCAN_PIPELINE_WORKERS", "8")
	t.Setenv("FUNDSCAN_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := []byte(`
universe:
  path: funds.yaml
  max_funds: 50
fetch:
  interval_ms: 1000
export:
  path: out/snapshot.xlsx
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "funds.yaml", cfg.Universe.Path)
	assert.Equal(t, 50, cfg.Universe.MaxFunds)
	assert.Equal(t, 1000, cfg.Fetch.IntervalMs)
	assert.Equal(t, "out/snapshot.xlsx", cfg.Export.Path)
	// Untouched keys keep their defaults.
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "chatty", Format: "json"}))
}
