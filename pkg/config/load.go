package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SHORTEST_AI_MODEL.
const EnvPrefix = "SHORTEST"

// SetDefaults registers the values of DefaultConfig on v so that
// environment variables can override keys absent from the file.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	v.SetDefault("ai.requests_per_minute", d.AI.RequestsPerMinute)

	v.SetDefault("browser.base_url", d.Browser.BaseURL)
	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.timeout_ms", d.Browser.TimeoutMs)
	v.SetDefault("browser.viewport_width", d.Browser.ViewportWidth)
	v.SetDefault("browser.viewport_height", d.Browser.ViewportHeight)
	v.SetDefault("browser.dom_max_length", d.Browser.DOMMaxLength)
	v.SetDefault("browser.skip_install", d.Browser.SkipInstall)

	v.SetDefault("agent.max_retries", d.Agent.MaxRetries)
	v.SetDefault("agent.max_turns", d.Agent.MaxTurns)
	v.SetDefault("agent.custom_instructions", "")

	v.SetDefault("runner.test_dir", d.Runner.TestDir)
	v.SetDefault("runner.test_pattern", d.Runner.TestPattern)
	v.SetDefault("runner.parallel", d.Runner.Parallel)
	v.SetDefault("runner.no_cache", d.Runner.NoCache)

	v.SetDefault("store.cache_dir", d.Store.CacheDir)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("logging.compress", d.Logging.Compress)
}

// Load reads the configuration. An explicit path must exist; without one,
// shortest.yaml is looked up in the working directory and is optional.
func Load(path string) (*Config, error) {
	return LoadWithViper(viper.New(), path)
}

// LoadWithViper is Load on a caller supplied viper instance, which lets the
// CLI bind its flags before reading.
func LoadWithViper(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("shortest")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.AI.APIKey = resolveAPIKey(cfg.AI)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveAPIKey falls back to the provider's conventional variables.
func resolveAPIKey(ai AIConfig) string {
	if ai.APIKey != "" {
		return ai.APIKey
	}
	var names []string
	switch strings.ToLower(ai.Provider) {
	case ProviderGemini:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		names = []string{"OPENAI_API_KEY"}
	}
	for _, name := range names {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}
