// Package tokenizer estimates token counts for providers that do not report
// usage on every response.
package tokenizer

import (
	"fmt"

	"github.com/antiwork/shortest/pkg/types"
	"github.com/pkoukk/tiktoken-go"
)

const (
	defaultEncoding = "cl100k_base"

	// tokensPerMessage is the framing overhead added for every message.
	tokensPerMessage = 4

	// tokensPerImage is a flat estimate for an attached screenshot.
	tokensPerImage = 765
)

// Tokenizer counts tokens with a tiktoken encoding.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// New creates a tokenizer using the cl100k_base encoding.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(defaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", defaultEncoding, err)
	}
	return &Tokenizer{encoding: enc}, nil
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// CountMessagesTokens returns the token count of a conversation.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += tokensPerMessage + t.CountTokens(msg.Content)
		for _, call := range msg.ToolCalls {
			total += t.CountTokens(call.Name) + t.CountTokens(call.RawArguments)
		}
		if msg.Image != "" {
			total += tokensPerImage
		}
	}
	return total
}

// Estimate builds a Usage for one call from its prompt and its output.
func (t *Tokenizer) Estimate(system string, prompt []*types.Message, output []*types.Message) types.Usage {
	promptTokens := t.CountTokens(system) + t.CountMessagesTokens(prompt)
	completionTokens := t.CountMessagesTokens(output)
	return types.Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}
