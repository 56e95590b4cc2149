// Package config loads shortest settings from shortest.yaml, SHORTEST_*
// environment variables and command line overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/antiwork/shortest/pkg/agent"
	"github.com/antiwork/shortest/pkg/llm/gemini"
	"github.com/antiwork/shortest/pkg/llm/openai"
	"github.com/antiwork/shortest/pkg/logging"
)

// Supported AI providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config is the full shortest configuration.
type Config struct {
	AI      AIConfig       `yaml:"ai" mapstructure:"ai"`
	Browser BrowserConfig  `yaml:"browser" mapstructure:"browser"`
	Agent   AgentConfig    `yaml:"agent" mapstructure:"agent"`
	Runner  RunnerConfig   `yaml:"runner" mapstructure:"runner"`
	Store   StoreConfig    `yaml:"store" mapstructure:"store"`
	Logging logging.Config `yaml:"logging" mapstructure:"logging"`
}

// AIConfig selects and configures the model provider.
type AIConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // openai or gemini
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`

	MaxTokens         int `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"` // 0 disables rate limiting
}

// BrowserConfig configures the browser sessions.
type BrowserConfig struct {
	// BaseURL is the application under test. Relative navigation resolves
	// against it.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	Headless       bool    `yaml:"headless" mapstructure:"headless"`
	TimeoutMs      float64 `yaml:"timeout_ms" mapstructure:"timeout_ms"`
	ViewportWidth  int     `yaml:"viewport_width" mapstructure:"viewport_width"`
	ViewportHeight int     `yaml:"viewport_height" mapstructure:"viewport_height"`
	DOMMaxLength   int     `yaml:"dom_max_length" mapstructure:"dom_max_length"`
	SkipInstall    bool    `yaml:"skip_install" mapstructure:"skip_install"`
}

// AgentConfig bounds the conversation driver.
type AgentConfig struct {
	MaxRetries         int    `yaml:"max_retries" mapstructure:"max_retries"`
	MaxTurns           int    `yaml:"max_turns" mapstructure:"max_turns"`
	CustomInstructions string `yaml:"custom_instructions" mapstructure:"custom_instructions"`
}

// ClientConfig converts the section to the agent limits.
func (a AgentConfig) ClientConfig() agent.Config {
	return agent.Config{MaxRetries: a.MaxRetries, MaxTurns: a.MaxTurns}
}

// RunnerConfig configures test discovery and execution.
type RunnerConfig struct {
	TestDir     string `yaml:"test_dir" mapstructure:"test_dir"`
	TestPattern string `yaml:"test_pattern" mapstructure:"test_pattern"`
	Parallel    int    `yaml:"parallel" mapstructure:"parallel"`
	NoCache     bool   `yaml:"no_cache" mapstructure:"no_cache"`
}

// StoreConfig locates persisted runs and flows.
type StoreConfig struct {
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// DefaultConfig returns a configuration suitable for most projects.
func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			Provider: ProviderOpenAI,
			Model:    openai.DefaultModel,
		},
		Browser: BrowserConfig{
			BaseURL:        "http://localhost:3000",
			Headless:       true,
			TimeoutMs:      30000,
			ViewportWidth:  1280,
			ViewportHeight: 720,
			DOMMaxLength:   50000,
		},
		Agent: AgentConfig{
			MaxRetries: agent.DefaultMaxRetries,
			MaxTurns:   agent.DefaultMaxTurns,
		},
		Runner: RunnerConfig{
			TestDir:     "shortest",
			TestPattern: "**.test.yaml",
			Parallel:    4,
		},
		Store: StoreConfig{
			CacheDir: ".shortest",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate checks the configuration and fills in derived defaults.
func (c *Config) Validate() error {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("invalid ai.provider: %q (must be 'openai' or 'gemini')", c.AI.Provider)
	}

	if c.AI.Model == "" {
		c.AI.Model = defaultModel(c.AI.Provider)
	}
	if c.AI.MaxTokens < 0 {
		return fmt.Errorf("ai.max_tokens cannot be negative")
	}
	if c.AI.RequestsPerMinute < 0 {
		return fmt.Errorf("ai.requests_per_minute cannot be negative")
	}

	if c.Agent.MaxRetries < 1 {
		return fmt.Errorf("agent.max_retries must be at least 1")
	}
	if c.Agent.MaxTurns < 1 {
		return fmt.Errorf("agent.max_turns must be at least 1")
	}

	if c.Browser.TimeoutMs < 0 {
		return fmt.Errorf("browser.timeout_ms cannot be negative")
	}
	if c.Browser.ViewportWidth < 0 || c.Browser.ViewportHeight < 0 {
		return fmt.Errorf("browser viewport cannot be negative")
	}

	if c.Runner.Parallel < 1 {
		c.Runner.Parallel = 1
	}
	if c.Runner.TestPattern == "" {
		return fmt.Errorf("runner.test_pattern is required")
	}
	if c.Store.CacheDir == "" {
		return fmt.Errorf("store.cache_dir is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid logging.level: %s (must be 'debug', 'info', 'warn' or 'error')", c.Logging.Level)
	}
	return nil
}

func defaultModel(provider string) string {
	if provider == ProviderGemini {
		return gemini.DefaultModel
	}
	return openai.DefaultModel
}
