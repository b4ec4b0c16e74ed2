package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "sow-index", cfg.Search.Collection)
	assert.Equal(t, "text_vector", cfg.Search.VectorName)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, 3, cfg.RAG.ToolTopK)
	assert.Equal(t, "heuristic", cfg.Agent.RiskStrategy)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromPaths_NoFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPaths(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Search.Port, cfg.Search.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
llm:
  provider: openai
  model: gpt-4o-mini
rag:
  top_k: 7
agent:
  max_turns: 4
  risk_strategy: model
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 7, cfg.RAG.TopK)
	assert.Equal(t, 4, cfg.Agent.MaxTurns)
	assert.Equal(t, "model", cfg.Agent.RiskStrategy)
	// untouched keys keep defaults
	assert.Equal(t, "sow-index", cfg.Search.Collection)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SOWA_RAG_TOP_K", "9")
	t.Setenv("AZURE_OPENAI_ACCOUNT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_KEY", "secret-key")

	cfg, err := LoadFromPaths()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.RAG.TopK)
	assert.Equal(t, "https://example.openai.azure.com", cfg.LLM.Endpoint)
	assert.Equal(t, "secret-key", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bard" }},
		{"unknown strategy", func(c *Config) { c.Agent.RiskStrategy = "dice" }},
		{"zero max turns", func(c *Config) { c.Agent.MaxTurns = 0 }},
		{"negative top k", func(c *Config) { c.RAG.TopK = -1 }},
		{"negative retries", func(c *Config) { c.LLM.MaxRetries = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Search.Host = "qdrant.internal"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "qdrant.internal", loaded.Search.Host)
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.APIKey = "sk-abcdef123456"

	red := cfg.Redacted()
	assert.Equal(t, "****3456", red.LLM.APIKey)
	assert.Equal(t, "sk-abcdef123456", cfg.LLM.APIKey, "original must not change")
}
