package types

import "strings"

// MessageRole identifies the author of a message in a conversation.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // RoleSystem carries the system prompt.
	RoleUser      MessageRole = "user"      // RoleUser carries instructions from the caller.
	RoleAssistant MessageRole = "assistant" // RoleAssistant carries model output, including tool calls.
	RoleTool      MessageRole = "tool"      // RoleTool carries the result of a single tool call.
)

// Message is a single entry of a conversation with the model.
type Message struct {
	// ToolCalls are the calls requested by the model. Only set for assistant messages.
	ToolCalls []ToolCall

	// Role is the author of the message.
	Role MessageRole

	// Content is the text body of the message.
	Content string

	// ToolCallID links a tool message to the call it answers.
	ToolCallID string

	// ToolName is the name of the tool that produced a tool message.
	ToolName string

	// Image is an optional base64 encoded PNG attached to the message.
	Image string
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message with optional tool calls.
func NewAssistantMessage(content string, calls ...ToolCall) *Message {
	return &Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// NewToolMessage creates the tool message answering call with result.
func NewToolMessage(call ToolCall, result ToolResult) *Message {
	return &Message{
		Role:       RoleTool,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Content:    result.Text(),
		Image:      result.Base64Image,
	}
}

// HasToolCalls reports whether the message requests any tool calls.
func (m *Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	// Arguments are the decoded call arguments.
	Arguments map[string]interface{}

	// ID is the provider assigned call identifier.
	ID string

	// Name is the name of the requested tool.
	Name string

	// RawArguments holds the undecoded argument payload as sent by the model.
	RawArguments string
}

// ToolResult is the outcome of executing a ToolCall. Failures are carried in
// Error instead of being returned as Go errors so the conversation can go on.
type ToolResult struct {
	// Metadata holds executor specific details (current URL, viewport, ...).
	Metadata map[string]interface{}

	// Output is the textual result of a successful call.
	Output string

	// Error is the failure message of an unsuccessful call.
	Error string

	// Base64Image is an optional screenshot captured by the call.
	Base64Image string
}

// Failed reports whether the result carries an error.
func (r ToolResult) Failed() bool {
	return r.Error != ""
}

// Text renders the result the way it is shown to the model.
func (r ToolResult) Text() string {
	if r.Failed() {
		return "Error: " + r.Error
	}
	if strings.TrimSpace(r.Output) == "" {
		return "OK"
	}
	return r.Output
}

// Usage is the token accounting of one or more model calls.
type Usage struct {
	CompletionTokens int `json:"completionTokens"`
	PromptTokens     int `json:"promptTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Add returns the sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// IsZero reports whether no tokens were accounted.
func (u Usage) IsZero() bool {
	return u.CompletionTokens == 0 && u.PromptTokens == 0 && u.TotalTokens == 0
}

// FinishReason explains why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonToolCalls     FinishReason = "tool-calls"
	FinishReasonContentFilter FinishReason = "content-filter"
	FinishReasonLength        FinishReason = "length"
	FinishReasonError         FinishReason = "error"
)
