// Package gemini provides a Google Gemini LLM provider implementation using
// native function calling.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/antiwork/shortest/pkg/llm"
	"github.com/antiwork/shortest/pkg/types"
	"google.golang.org/genai"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"

	providerName = "gemini"
)

// Provider implements llm.Provider for the Gemini API.
type Provider struct {
	client    *genai.Client
	apiKey    string
	baseURL   string
	model     string
	maxTokens int32
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

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithMaxTokens caps the completion length of every call.
func WithMaxTokens(maxTokens int) ProviderOption {
	return func(p *Provider) {
		p.maxTokens = int32(maxTokens)
	}
}

// NewProvider creates a new Gemini provider.
//
// If apiKey is empty, GEMINI_API_KEY and then GOOGLE_API_KEY are consulted.
func NewProvider(ctx context.Context, apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (provide via parameter or GEMINI_API_KEY environment variable)")
	}

	p := &Provider{
		apiKey: apiKey,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(p)
	}

	cfg := &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	p.client = client

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

// Generate performs a single GenerateContent call.
func (p *Provider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if p.maxTokens > 0 {
		config.MaxOutputTokens = p.maxTokens
	}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: convertTools(req.Tools)}}
	}

	contents, err := convertContents(req.Messages)
	if err != nil {
		return nil, err
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}

	return convertResponse(result), nil
}

func convertResponse(result *genai.GenerateContentResponse) *llm.Response {
	resp := &llm.Response{FinishReason: types.FinishReasonError}

	if result.UsageMetadata != nil {
		resp.Usage = types.Usage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}

	if len(result.Candidates) == 0 {
		if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
			resp.FinishReason = types.FinishReasonContentFilter
		}
		resp.Messages = []*types.Message{types.NewAssistantMessage("")}
		return resp
	}

	candidate := result.Candidates[0]
	resp.FinishReason = mapFinishReason(candidate.FinishReason)
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				resp.Text += part.Text
			}
		}
	}

	for i, fc := range result.FunctionCalls() {
		call := types.ToolCall{
			ID:        fc.ID,
			Name:      fc.Name,
			Arguments: fc.Args,
		}
		if call.ID == "" {
			call.ID = fmt.Sprintf("call_%d", i+1)
		}
		if call.Arguments == nil {
			call.Arguments = map[string]interface{}{}
		}
		resp.ToolCalls = append(resp.ToolCalls, call)
	}
	if len(resp.ToolCalls) > 0 {
		resp.FinishReason = types.FinishReasonToolCalls
	}

	resp.Messages = []*types.Message{types.NewAssistantMessage(resp.Text, resp.ToolCalls...)}
	return resp
}

func mapFinishReason(reason genai.FinishReason) types.FinishReason {
	switch reason {
	case genai.FinishReasonStop:
		return types.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return types.FinishReasonLength
	case genai.FinishReasonSafety,
		genai.FinishReasonRecitation,
		genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII:
		return types.FinishReasonContentFilter
	default:
		return types.FinishReasonError
	}
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.StatusError{Provider: providerName, StatusCode: apiErr.Code, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &llm.StatusError{Provider: providerName, StatusCode: apiErrPtr.Code, Err: err}
	}
	return fmt.Errorf("%s: %w", providerName, err)
}

// convertContents converts the conversation into Gemini contents. Consecutive
// tool messages are folded into a single user content of function responses.
func convertContents(messages []*types.Message) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(messages))
	var pending *genai.Content

	flush := func() {
		if pending != nil {
			contents = append(contents, pending)
			pending = nil
		}
	}

	for _, msg := range messages {
		if msg.Role != types.RoleTool {
			flush()
		}

		switch msg.Role {
		case types.RoleSystem, types.RoleUser:
			content := genai.NewContentFromText(msg.Content, genai.RoleUser)
			if msg.Image != "" {
				part, err := imagePart(msg.Image)
				if err != nil {
					return nil, err
				}
				content.Parts = append(content.Parts, part)
			}
			contents = append(contents, content)
		case types.RoleAssistant:
			content := &genai.Content{Role: genai.RoleModel}
			if msg.Content != "" {
				content.Parts = append(content.Parts, genai.NewPartFromText(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				content.Parts = append(content.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: call.ID, Name: call.Name, Args: call.Arguments},
				})
			}
			if len(content.Parts) == 0 {
				content.Parts = append(content.Parts, genai.NewPartFromText(""))
			}
			contents = append(contents, content)
		case types.RoleTool:
			if pending == nil {
				pending = &genai.Content{Role: genai.RoleUser}
			}
			part := genai.NewPartFromFunctionResponse(msg.ToolName, map[string]any{"output": msg.Content})
			part.FunctionResponse.ID = msg.ToolCallID
			pending.Parts = append(pending.Parts, part)
			if msg.Image != "" {
				img, err := imagePart(msg.Image)
				if err != nil {
					return nil, err
				}
				pending.Parts = append(pending.Parts, img)
			}
		}
	}
	flush()

	return contents, nil
}

func imagePart(base64PNG string) (*genai.Part, error) {
	data, err := base64.StdEncoding.DecodeString(base64PNG)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return genai.NewPartFromBytes(data, "image/png"), nil
}

func convertTools(tools []llm.ToolDescriptor) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if len(tool.Parameters) > 0 {
			decl.Parameters = convertSchema(tool.Parameters)
		}
		out = append(out, decl)
	}
	return out
}

// convertSchema translates a JSON schema map into a genai.Schema.
func convertSchema(schema map[string]interface{}) *genai.Schema {
	out := &genai.Schema{}

	if t, ok := schema["type"].(string); ok {
		out.Type = schemaType(t)
	}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	if enum, ok := schema["enum"].([]string); ok {
		out.Enum = enum
	} else if enum, ok := schema["enum"].([]interface{}); ok {
		for _, v := range enum {
			if s, ok := v.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}
	if props, ok := schema["properties"].(map[string]interface{}); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if prop, ok := props[name].(map[string]interface{}); ok {
				out.Properties[name] = convertSchema(prop)
			}
		}
		out.PropertyOrdering = names
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		out.Items = convertSchema(items)
	}
	switch required := schema["required"].(type) {
	case []string:
		out.Required = required
	case []interface{}:
		for _, v := range required {
			if s, ok := v.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}

	return out
}

func schemaType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
