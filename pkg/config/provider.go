package config

import (
	"context"
	"fmt"

	"github.com/antiwork/shortest/pkg/llm"
	"github.com/antiwork/shortest/pkg/llm/gemini"
	"github.com/antiwork/shortest/pkg/llm/openai"
)

// BuildProvider creates the LLM provider described by ai, rate limited when
// ai.RequestsPerMinute is set.
func BuildProvider(ctx context.Context, ai AIConfig) (llm.Provider, error) {
	if ai.APIKey == "" {
		ai.APIKey = resolveAPIKey(ai)
	}

	var (
		provider llm.Provider
		err      error
	)
	switch ai.Provider {
	case ProviderOpenAI, "":
		opts := []openai.ProviderOption{openai.WithModel(ai.Model)}
		if ai.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(ai.BaseURL))
		}
		if ai.MaxTokens > 0 {
			opts = append(opts, openai.WithMaxTokens(ai.MaxTokens))
		}
		provider, err = openai.NewProvider(ai.APIKey, opts...)

	case ProviderGemini:
		opts := []gemini.ProviderOption{gemini.WithModel(ai.Model)}
		if ai.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(ai.BaseURL))
		}
		if ai.MaxTokens > 0 {
			opts = append(opts, gemini.WithMaxTokens(ai.MaxTokens))
		}
		provider, err = gemini.NewProvider(ctx, ai.APIKey, opts...)

	default:
		return nil, fmt.Errorf("unsupported provider %q", ai.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	return llm.NewRateLimitedProvider(provider, ai.RequestsPerMinute), nil
}
