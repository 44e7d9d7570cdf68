package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrentDocuments)
	assert.InDelta(t, 325, cfg.Contract.ModuleKW, 0.001)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Cloud.Model)
	assert.Equal(t, 4096, cfg.Cloud.MaxTokens)
	assert.InDelta(t, 2, cfg.Cloud.RequestsPerSec, 0.001)
	assert.Equal(t, 120, cfg.Cloud.TimeoutSecs)
	assert.Equal(t, "http://localhost:8741/v1/analyze", cfg.Local.Endpoint)
	assert.Equal(t, "pdftotext", cfg.Local.PdfToTextPath)
	assert.True(t, cfg.Routing.PrimaryEnabled)
	assert.True(t, cfg.Routing.PreferPrimary)
	assert.InDelta(t, 25.0, cfg.Routing.CostCeilingUSD, 0.001)
	assert.Equal(t, 32, cfg.Routing.SecondaryMaxMB)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
  format: console
server:
  port: 9090
routing:
  prefer_primary: false
  cost_ceiling_usd: 5.50
batch:
  max_concurrent_documents: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Routing.PreferPrimary)
	assert.InDelta(t, 5.50, cfg.Routing.CostCeilingUSD, 0.001)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrentDocuments)
	// Defaults still apply for unset values
	assert.InDelta(t, 325, cfg.Contract.ModuleKW, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("INTAKE_STORE_DRIVER", "postgres")
	t.Setenv("INTAKE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("INTAKE_SERVER_PORT", "3000")
	t.Setenv("INTAKE_CONTRACT_MODULE_KW", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.InDelta(t, 250, cfg.Contract.ModuleKW, 0.001)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	require.Error(t, err)
}
