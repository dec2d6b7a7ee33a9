package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/on-the-ground/effect_ive_runtime/effects/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuntimeConfig_Normalizes(t *testing.T) {
	cfg := config.NewRuntimeConfig(0, -3)

	assert.Equal(t, config.DefaultYieldBudget, cfg.YieldBudget)
	assert.Equal(t, config.DefaultNumWorkers, cfg.NumWorkers)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.True(t, cfg.ReportFailures)

	cfg = config.NewRuntimeConfig(16, 4)
	assert.Equal(t, 16, cfg.YieldBudget)
	assert.Equal(t, 4, cfg.NumWorkers)
}

func TestLoad_PartialDocumentKeepsDefaults(t *testing.T) {
	cfg, err := config.Load(strings.NewReader(`
runtime:
  num_workers: 3
  log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.NumWorkers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.DefaultYieldBudget, cfg.YieldBudget)
	assert.True(t, cfg.ReportFailures)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	_, err := config.Load(strings.NewReader("runtime:\n  yield_budgett: 3\n"))
	assert.Error(t, err)
}

func TestLoadFile_RoundTrip(t *testing.T) {
	want := config.RuntimeConfig{YieldBudget: 64, NumWorkers: 2, ReportFailures: false, LogLevel: "warn"}
	raw, err := config.Marshal(want)
	require.NoError(t, err)
	assert.Contains(t, string(raw), config.KeyRuntime+":")
	assert.Contains(t, string(raw), config.KeyYieldBudget+": 64")

	path := filepath.Join(t.TempDir(), "runtime.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	got, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
