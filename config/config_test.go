package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsToMockWithoutKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, cfg.Provider)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./results", cfg.ResultsDir)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadPicksProviderFromKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("DESKMESH_PROVIDER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
}

func TestLoadExplicitProviderRequiresKey(t *testing.T) {
	t.Setenv("DESKMESH_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("DESKMESH_PROVIDER", "bedrock")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("DESKMESH_PROVIDER", "mock")
	t.Setenv("DESKMESH_MODEL", "gpt-4o")
	t.Setenv("DESKMESH_SIMULATOR_MODEL", "gpt-4o-mini")
	t.Setenv("DESKMESH_ADDR", ":9999")
	t.Setenv("DESKMESH_DB_PATH", "/tmp/desk.db")
	t.Setenv("DESKMESH_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.SimulatorModel)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "/tmp/desk.db", cfg.DBPath)
	assert.Equal(t, "json", cfg.LogFormat)
}
