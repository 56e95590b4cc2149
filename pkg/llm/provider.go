// Package llm provides abstractions for LLM provider integration.
//
// A Provider performs a single, non-streaming generation call with native
// tool calling. The agent layer owns the conversation and the tool loop.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := provider.Generate(ctx, &llm.Request{
//	    System:   "You are a helpful assistant.",
//	    Messages: []*types.Message{types.NewUserMessage("Hello!")},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Text)
package llm

import (
	"context"

	"github.com/antiwork/shortest/pkg/types"
)

// ToolDescriptor describes a tool the model may call.
type ToolDescriptor struct {
	// Parameters is the JSON schema of the tool arguments.
	Parameters map[string]interface{}

	Name        string
	Description string
}

// Request is the input of a single generation call.
type Request struct {
	System   string
	Messages []*types.Message
	Tools    []ToolDescriptor
}

// Response is the result of a single generation call.
type Response struct {
	// Messages are the messages produced by the model in this call, ready to
	// be appended to the conversation.
	Messages []*types.Message

	// ToolCalls are the tool calls requested by the model, in model order.
	ToolCalls []types.ToolCall

	Text         string
	FinishReason types.FinishReason
	Usage        types.Usage
}

// Provider defines the interface for LLM integrations.
//
// Implementations translate Request into the provider wire format, normalize
// the provider finish reason into types.FinishReason, and report HTTP level
// failures as *StatusError so callers can classify them without importing
// provider SDKs.
type Provider interface {
	// Generate performs one model call.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Name returns the provider identifier (e.g. "openai").
	Name() string

	// GetModel returns the model name being used.
	GetModel() string
}
