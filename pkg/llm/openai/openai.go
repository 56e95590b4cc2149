// Package openai provides an OpenAI-compatible LLM provider implementation
// using native function calling.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	resp, err := provider.Generate(ctx, &llm.Request{
//	    System:   "You are a test runner.",
//	    Messages: []*types.Message{types.NewUserMessage("Open the login page")},
//	    Tools:    tools,
//	})
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/antiwork/shortest/pkg/llm"
	"github.com/antiwork/shortest/pkg/types"
	jsoniter "github.com/json-iterator/go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o"

	providerName = "openai"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Provider implements llm.Provider for OpenAI-compatible APIs.
type Provider struct {
	client    openai.Client
	apiKey    string
	baseURL   string
	model     string
	maxTokens int64
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model to use for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs.
// This enables using Azure OpenAI, local models, or other compatible services.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		if baseURL != "" {
			p.baseURL = baseURL
		}
	}
}

// WithMaxTokens caps the completion length of every call.
func WithMaxTokens(maxTokens int) ProviderOption {
	return func(p *Provider) {
		p.maxTokens = int64(maxTokens)
	}
}

// NewProvider creates a new OpenAI provider with the given API key.
//
// If apiKey is empty, it will attempt to read from the OPENAI_API_KEY environment variable.
// If baseURL is not provided via WithBaseURL option, it will check OPENAI_BASE_URL environment variable.
//
// SDK level retries are disabled; the agent owns the retry policy.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}

	p := &Provider{
		model:   DefaultModel,
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.baseURL == DefaultBaseURL {
		if envBaseURL := os.Getenv("OPENAI_BASE_URL"); envBaseURL != "" {
			p.baseURL = envBaseURL
		}
	}

	p.client = openai.NewClient(
		option.WithAPIKey(p.apiKey),
		option.WithBaseURL(p.baseURL),
		option.WithMaxRetries(0),
	)

	return p, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// GetBaseURL returns the base URL being used for API requests.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}

// Generate performs a single chat completion call.
func (p *Provider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: convertToOpenAIMessages(req.System, req.Messages),
	}
	if p.maxTokens > 0 {
		params.MaxTokens = openai.Int(p.maxTokens)
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
		params.ParallelToolCalls = openai.Bool(true)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%s: response contained no choices", providerName)
	}

	choice := completion.Choices[0]
	resp := &llm.Response{
		Text:         choice.Message.Content,
		FinishReason: mapFinishReason(string(choice.FinishReason)),
		Usage: types.Usage{
			CompletionTokens: int(completion.Usage.CompletionTokens),
			PromptTokens:     int(completion.Usage.PromptTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}

	for i, tc := range choice.Message.ToolCalls {
		call := types.ToolCall{
			ID:           tc.ID,
			Name:         tc.Function.Name,
			RawArguments: tc.Function.Arguments,
			Arguments:    map[string]interface{}{},
		}
		if call.ID == "" {
			call.ID = fmt.Sprintf("call_%d", i+1)
		}
		if raw := strings.TrimSpace(tc.Function.Arguments); raw != "" {
			// Undecodable arguments are left to the tool registry to report.
			_ = json.Unmarshal([]byte(raw), &call.Arguments)
		}
		resp.ToolCalls = append(resp.ToolCalls, call)
	}
	if len(resp.ToolCalls) > 0 {
		resp.FinishReason = types.FinishReasonToolCalls
	}

	resp.Messages = []*types.Message{types.NewAssistantMessage(resp.Text, resp.ToolCalls...)}
	return resp, nil
}

func mapFinishReason(reason string) types.FinishReason {
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case "stop":
		return types.FinishReasonStop
	case "tool_calls", "function_call":
		return types.FinishReasonToolCalls
	case "length":
		return types.FinishReasonLength
	case "content_filter":
		return types.FinishReasonContentFilter
	default:
		return types.FinishReasonError
	}
}

func wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &llm.StatusError{Provider: providerName, StatusCode: apiErr.StatusCode, Err: err}
	}
	return fmt.Errorf("%s: %w", providerName, err)
}

func convertTools(tools []llm.ToolDescriptor) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, tool := range tools {
		fn := openai.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: openai.String(tool.Description),
		}
		if len(tool.Parameters) > 0 {
			fn.Parameters = openai.FunctionParameters(tool.Parameters)
		}
		out = append(out, openai.ChatCompletionToolParam{Function: fn})
	}
	return out
}

// convertToOpenAIMessages converts the conversation into the chat completion
// wire format. Tool messages cannot carry images, so screenshots are sent in a
// user message right after the run of tool messages they belong to.
func convertToOpenAIMessages(system string, messages []*types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}

	var pendingImages []openai.ChatCompletionContentPartUnionParam
	flushImages := func() {
		if len(pendingImages) == 0 {
			return
		}
		parts := append([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart("Screenshots captured by the previous tool calls."),
		}, pendingImages...)
		out = append(out, openai.UserMessage(parts))
		pendingImages = nil
	}

	for _, msg := range messages {
		if msg.Role != types.RoleTool {
			flushImages()
		}

		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case types.RoleUser:
			if msg.Image != "" {
				out = append(out, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
					openai.TextContentPart(msg.Content),
					imagePart(msg.Image),
				}))
				continue
			}
			out = append(out, openai.UserMessage(msg.Content))
		case types.RoleAssistant:
			if !msg.HasToolCalls() {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{
				ToolCalls: make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls)),
			}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(msg.Content)}
			}
			for _, call := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: encodeArguments(call),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case types.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
			if msg.Image != "" {
				pendingImages = append(pendingImages, imagePart(msg.Image))
			}
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	flushImages()

	return out
}

func imagePart(base64PNG string) openai.ChatCompletionContentPartUnionParam {
	return openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
		URL: "data:image/png;base64," + base64PNG,
	})
}

func encodeArguments(call types.ToolCall) string {
	if call.RawArguments != "" && json.Valid([]byte(call.RawArguments)) {
		return call.RawArguments
	}
	if call.Arguments == nil {
		return "{}"
	}
	data, err := json.Marshal(call.Arguments)
	if err != nil {
		return "{}"
	}
	return string(data)
}
