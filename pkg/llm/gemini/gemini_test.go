package gemini

import (
	"context"
	"testing"

	"github.com/antiwork/shortest/pkg/llm"
	"github.com/antiwork/shortest/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNewProvider_RequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	_, err := NewProvider(context.Background(), "")
	require.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), "key", WithModel("gemini-2.5-pro"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", p.GetModel())
	assert.Equal(t, "gemini", p.Name())
}

func TestMapFinishReason(t *testing.T) {
	assert.Equal(t, types.FinishReasonStop, mapFinishReason(genai.FinishReasonStop))
	assert.Equal(t, types.FinishReasonLength, mapFinishReason(genai.FinishReasonMaxTokens))
	assert.Equal(t, types.FinishReasonContentFilter, mapFinishReason(genai.FinishReasonSafety))
	assert.Equal(t, types.FinishReasonContentFilter, mapFinishReason(genai.FinishReasonProhibitedContent))
	assert.Equal(t, types.FinishReasonError, mapFinishReason(genai.FinishReasonOther))
}

func TestConvertSchema(t *testing.T) {
	schema := convertSchema(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector":  map[string]interface{}{"type": "string", "description": "CSS selector"},
			"direction": map[string]interface{}{"type": "string", "enum": []string{"up", "down"}},
			"coordinate": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "integer"},
			},
		},
		"required": []string{"selector"},
	})

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"selector"}, schema.Required)
	assert.Equal(t, []string{"coordinate", "direction", "selector"}, schema.PropertyOrdering)
	require.Contains(t, schema.Properties, "selector")
	assert.Equal(t, "CSS selector", schema.Properties["selector"].Description)
	assert.Equal(t, []string{"up", "down"}, schema.Properties["direction"].Enum)
	assert.Equal(t, genai.TypeInteger, schema.Properties["coordinate"].Items.Type)
}

func TestConvertContents_FoldsToolResults(t *testing.T) {
	call1 := types.ToolCall{ID: "a", Name: "click", Arguments: map[string]interface{}{"selector": "#x"}}
	call2 := types.ToolCall{ID: "b", Name: "screenshot", Arguments: map[string]interface{}{}}

	contents, err := convertContents([]*types.Message{
		types.NewUserMessage("start"),
		types.NewAssistantMessage("", call1, call2),
		types.NewToolMessage(call1, types.ToolResult{Output: "clicked"}),
		types.NewToolMessage(call2, types.ToolResult{Output: "shot", Base64Image: "aGk="}),
	})
	require.NoError(t, err)
	require.Len(t, contents, 3)

	assert.Equal(t, genai.RoleModel, contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, "click", contents[1].Parts[0].FunctionCall.Name)

	results := contents[2]
	assert.Equal(t, genai.RoleUser, results.Role)
	require.Len(t, results.Parts, 3)
	assert.Equal(t, "a", results.Parts[0].FunctionResponse.ID)
	assert.Equal(t, "b", results.Parts[1].FunctionResponse.ID)
	require.NotNil(t, results.Parts[2].InlineData)
	assert.Equal(t, []byte("hi"), results.Parts[2].InlineData.Data)
}

func TestConvertResponse(t *testing.T) {
	resp := convertResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content: &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{Name: "click", Args: map[string]any{"selector": "#go"}}},
				},
			},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     20,
			CandidatesTokenCount: 10,
			TotalTokenCount:      30,
		},
	})

	assert.Equal(t, types.FinishReasonToolCalls, resp.FinishReason)
	assert.Equal(t, types.Usage{CompletionTokens: 10, PromptTokens: 20, TotalTokens: 30}, resp.Usage)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "#go", resp.ToolCalls[0].Arguments["selector"])
}

func TestConvertResponse_Blocked(t *testing.T) {
	resp := convertResponse(&genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	})
	assert.Equal(t, types.FinishReasonContentFilter, resp.FinishReason)
}

func TestWrapError(t *testing.T) {
	err := wrapError(genai.APIError{Code: 401, Message: "bad key"})
	assert.Equal(t, 401, llm.StatusCode(err))
}
