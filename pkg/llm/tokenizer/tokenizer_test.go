package tokenizer

import (
	"testing"

	"github.com/antiwork/shortest/pkg/types"
	"github.com/stretchr/testify/assert"
)

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := New()
	if err != nil {
		t.Skipf("Tokenizer initialization failed (expected in some environments): %v", err)
	}
	return tok
}

func TestCountTokens(t *testing.T) {
	tok := newTestTokenizer(t)

	assert.Equal(t, 0, tok.CountTokens(""))
	assert.Greater(t, tok.CountTokens("Click the login button"), 0)
}

func TestCountMessagesTokens(t *testing.T) {
	tok := newTestTokenizer(t)

	plain := []*types.Message{types.NewUserMessage("hello")}
	withImage := []*types.Message{{Role: types.RoleTool, Content: "hello", Image: "aGk="}}

	assert.Equal(t, tok.CountMessagesTokens(plain)+tokensPerImage, tok.CountMessagesTokens(withImage))
}

func TestEstimate(t *testing.T) {
	tok := newTestTokenizer(t)

	usage := tok.Estimate("system", []*types.Message{types.NewUserMessage("do it")},
		[]*types.Message{types.NewAssistantMessage(`{"status":"passed","reason":"ok"}`)})

	assert.Greater(t, usage.PromptTokens, 0)
	assert.Greater(t, usage.CompletionTokens, 0)
	assert.Equal(t, usage.PromptTokens+usage.CompletionTokens, usage.TotalTokens)
}
