package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/antiwork/shortest/pkg/llm"
	"github.com/antiwork/shortest/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")

	_, err := NewProvider("")
	require.Error(t, err)

	p, err := NewProvider("sk-test", WithModel("gpt-4o-mini"), WithBaseURL("http://localhost:9999/v1"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.GetModel())
	assert.Equal(t, "http://localhost:9999/v1", p.GetBaseURL())
	assert.Equal(t, "openai", p.Name())
}

func TestNewProvider_EnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_BASE_URL", "http://proxy.local/v1")

	p, err := NewProvider("")
	require.NoError(t, err)
	assert.Equal(t, "http://proxy.local/v1", p.GetBaseURL())
	assert.Equal(t, DefaultModel, p.GetModel())
}

func TestMapFinishReason(t *testing.T) {
	tests := map[string]types.FinishReason{
		"stop":           types.FinishReasonStop,
		"tool_calls":     types.FinishReasonToolCalls,
		"function_call":  types.FinishReasonToolCalls,
		"length":         types.FinishReasonLength,
		"content_filter": types.FinishReasonContentFilter,
		"":               types.FinishReasonError,
		"weird":          types.FinishReasonError,
	}
	for in, want := range tests {
		assert.Equal(t, want, mapFinishReason(in), in)
	}
}

func TestConvertToOpenAIMessages_ImagesFollowToolRun(t *testing.T) {
	call1 := types.ToolCall{ID: "c1", Name: "screenshot", Arguments: map[string]interface{}{}}
	call2 := types.ToolCall{ID: "c2", Name: "click", Arguments: map[string]interface{}{"selector": "#a"}}
	messages := []*types.Message{
		types.NewUserMessage("go"),
		types.NewAssistantMessage("", call1, call2),
		types.NewToolMessage(call1, types.ToolResult{Output: "shot", Base64Image: "aGk="}),
		types.NewToolMessage(call2, types.ToolResult{Output: "clicked"}),
	}

	out := convertToOpenAIMessages("system prompt", messages)
	require.Len(t, out, 6)
	assert.NotNil(t, out[0].OfSystem)
	assert.NotNil(t, out[1].OfUser)
	require.NotNil(t, out[2].OfAssistant)
	assert.Len(t, out[2].OfAssistant.ToolCalls, 2)
	assert.Equal(t, `{"selector":"#a"}`, out[2].OfAssistant.ToolCalls[1].Function.Arguments)
	assert.NotNil(t, out[3].OfTool)
	assert.NotNil(t, out[4].OfTool)
	assert.NotNil(t, out[5].OfUser)
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_abc",
						"type": "function",
						"function": {"name": "click", "arguments": "{\"selector\":\"#submit\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 10, "total_tokens": 30}
		}`)
	}))
	defer server.Close()

	p, err := NewProvider("sk-test", WithBaseURL(server.URL+"/v1"))
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), &llm.Request{
		System:   "sys",
		Messages: []*types.Message{types.NewUserMessage("click submit")},
		Tools: []llm.ToolDescriptor{{
			Name:        "click",
			Description: "Click an element",
			Parameters:  map[string]interface{}{"type": "object"},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, types.FinishReasonToolCalls, resp.FinishReason)
	assert.Equal(t, types.Usage{CompletionTokens: 10, PromptTokens: 20, TotalTokens: 30}, resp.Usage)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_abc", resp.ToolCalls[0].ID)
	assert.Equal(t, "#submit", resp.ToolCalls[0].Arguments["selector"])
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, types.RoleAssistant, resp.Messages[0].Role)
}

func TestGenerate_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`)
	}))
	defer server.Close()

	p, err := NewProvider("sk-bad", WithBaseURL(server.URL+"/v1"))
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), &llm.Request{Messages: []*types.Message{types.NewUserMessage("hi")}})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, llm.StatusCode(err))
}
