package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/antiwork/shortest/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shortest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearKeys(t *testing.T) {
	t.Helper()
	for _, name := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "SHORTEST_AI_MODEL", "SHORTEST_AI_PROVIDER"} {
		t.Setenv(name, "")
	}
}

func TestLoad_File(t *testing.T) {
	clearKeys(t)
	path := writeConfig(t, `
ai:
  provider: openai
  model: gpt-4o-mini
  api_key: sk-file
browser:
  base_url: http://localhost:8080
  headless: false
agent:
  max_retries: 5
runner:
  parallel: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, "sk-file", cfg.AI.APIKey)
	assert.Equal(t, "http://localhost:8080", cfg.Browser.BaseURL)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 5, cfg.Agent.MaxRetries)
	assert.Equal(t, 40, cfg.Agent.MaxTurns)
	assert.Equal(t, 2, cfg.Runner.Parallel)
	assert.Equal(t, "**.test.yaml", cfg.Runner.TestPattern)
	assert.Equal(t, ".shortest", cfg.Store.CacheDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearKeys(t)
	t.Setenv("SHORTEST_AI_MODEL", "gpt-4.1")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(writeConfig(t, "ai:\n  model: gpt-4o\n"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", cfg.AI.Model)
	assert.Equal(t, "sk-env", cfg.AI.APIKey)
}

func TestLoad_GeminiDefaults(t *testing.T) {
	clearKeys(t)
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg, err := Load(writeConfig(t, "ai:\n  provider: gemini\n"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.Equal(t, "g-key", cfg.AI.APIKey)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad provider", func(c *Config) { c.AI.Provider = "claude" }, "invalid ai.provider"},
		{"zero retries", func(c *Config) { c.Agent.MaxRetries = 0 }, "max_retries"},
		{"zero turns", func(c *Config) { c.Agent.MaxTurns = 0 }, "max_turns"},
		{"negative rpm", func(c *Config) { c.AI.RequestsPerMinute = -1 }, "requests_per_minute"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"no pattern", func(c *Config) { c.Runner.TestPattern = "" }, "test_pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_ClampsParallel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runner.Parallel = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Runner.Parallel)
}

func TestBuildProvider(t *testing.T) {
	clearKeys(t)

	p, err := BuildProvider(context.Background(), AIConfig{Provider: ProviderOpenAI, Model: "gpt-4o", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-4o", p.GetModel())

	p, err = BuildProvider(context.Background(), AIConfig{Provider: ProviderOpenAI, Model: "gpt-4o", APIKey: "sk-test", RequestsPerMinute: 30})
	require.NoError(t, err)
	assert.IsType(t, &llm.RateLimitedProvider{}, p)
	assert.Equal(t, "openai", p.Name())

	_, err = BuildProvider(context.Background(), AIConfig{Provider: ProviderOpenAI, Model: "gpt-4o"})
	assert.Error(t, err, "missing API key")

	_, err = BuildProvider(context.Background(), AIConfig{Provider: "other"})
	assert.Error(t, err)
}
