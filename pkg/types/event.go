package types

// AgentEventType defines the type of event emitted by the agent.
type AgentEventType string

const (
	EventTypeToolCall        AgentEventType = "tool_call"         // EventTypeToolCall indicates the agent is calling a tool.
	EventTypeToolResult      AgentEventType = "tool_result"       // EventTypeToolResult indicates a successful tool call result.
	EventTypeToolResultError AgentEventType = "tool_result_error" // EventTypeToolResultError indicates a tool call resulted in an error.
	EventTypeAPICallStart    AgentEventType = "api_call_start"    // EventTypeAPICallStart indicates the agent is making an API call.
	EventTypeAPICallEnd      AgentEventType = "api_call_end"      // EventTypeAPICallEnd indicates an API call has completed.
	EventTypeTokenUsage      AgentEventType = "token_usage"       // EventTypeTokenUsage indicates token usage information from an LLM completion.
	EventTypeTurnEnd         AgentEventType = "turn_end"          // EventTypeTurnEnd indicates a tool turn has been fully processed.
	EventTypeRetry           AgentEventType = "retry"             // EventTypeRetry indicates a failed attempt is about to be retried.
	EventTypeError           AgentEventType = "error"             // EventTypeError indicates an error ended the action.
)

// AgentEvent represents an event emitted by the agent during execution.
type AgentEvent struct {
	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}

	// ToolInput is the input being sent to the tool (for tool call events).
	ToolInput map[string]interface{}

	// ToolOutput is the result from the tool (for tool result events).
	ToolOutput interface{}

	// Error contains error information for error events.
	Error error

	// TokenUsage contains token usage information (for token usage events).
	TokenUsage *Usage

	// ToolName is the name of the tool being called (for tool events).
	ToolName string

	// Type indicates the kind of event.
	Type AgentEventType

	// Attempt is the 1-based attempt number the event belongs to.
	Attempt int
}

// NewToolCallEvent creates a tool call event.
func NewToolCallEvent(toolName string, toolInput map[string]interface{}) *AgentEvent {
	return &AgentEvent{
		Type:      EventTypeToolCall,
		ToolName:  toolName,
		ToolInput: toolInput,
		Metadata:  make(map[string]interface{}),
	}
}

// NewToolResultEvent creates a tool result event.
func NewToolResultEvent(toolName string, output interface{}) *AgentEvent {
	return &AgentEvent{
		Type:       EventTypeToolResult,
		ToolName:   toolName,
		ToolOutput: output,
		Metadata:   make(map[string]interface{}),
	}
}

// NewToolResultErrorEvent creates a tool result error event.
func NewToolResultErrorEvent(toolName string, err error) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeToolResultError,
		ToolName: toolName,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}

// NewAPICallStartEvent creates an API call start event.
func NewAPICallStartEvent(apiName string, turn int) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeAPICallStart,
		Metadata: map[string]interface{}{"api_name": apiName, "turn": turn},
	}
}

// NewAPICallEndEvent creates an API call end event.
func NewAPICallEndEvent(apiName string, finishReason FinishReason) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeAPICallEnd,
		Metadata: map[string]interface{}{"api_name": apiName, "finish_reason": string(finishReason)},
	}
}

// NewTokenUsageEvent creates a token usage event.
func NewTokenUsageEvent(usage Usage) *AgentEvent {
	return &AgentEvent{
		Type:       EventTypeTokenUsage,
		TokenUsage: &usage,
		Metadata:   make(map[string]interface{}),
	}
}

// NewTurnEndEvent creates a turn end event.
func NewTurnEndEvent(toolCalls int) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeTurnEnd,
		Metadata: map[string]interface{}{"tool_calls": toolCalls},
	}
}

// NewRetryEvent creates an event announcing that a failed attempt will be retried.
func NewRetryEvent(attempt int, err error) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeRetry,
		Attempt:  attempt,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(err error) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeError,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}

// WithMetadata adds a metadata entry and returns the event for chaining.
func (e *AgentEvent) WithMetadata(key string, value interface{}) *AgentEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// IsToolEvent returns true if this is a tool-related event.
func (e *AgentEvent) IsToolEvent() bool {
	return e.Type == EventTypeToolCall ||
		e.Type == EventTypeToolResult ||
		e.Type == EventTypeToolResultError
}

// IsAPIEvent returns true if this is an API call event.
func (e *AgentEvent) IsAPIEvent() bool {
	return e.Type == EventTypeAPICallStart || e.Type == EventTypeAPICallEnd
}

// IsErrorEvent returns true if this is an error event.
func (e *AgentEvent) IsErrorEvent() bool {
	return e.Type == EventTypeError || e.Type == EventTypeToolResultError
}
