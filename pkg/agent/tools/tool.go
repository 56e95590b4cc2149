package tools

import (
	"context"

	"github.com/antiwork/shortest/pkg/types"
)

// Tool represents a capability that the model can invoke through native
// function calling.
type Tool interface {
	// Name returns the unique identifier for this tool (e.g., "click")
	Name() string

	// Description returns a human-readable description of what this tool does
	Description() string

	// Schema returns the JSON schema for this tool's input parameters
	Schema() map[string]interface{}

	// Execute runs the tool with the decoded call arguments.
	Execute(ctx context.Context, args map[string]interface{}) (types.ToolResult, error)
}

// Handler executes a tool call.
type Handler func(ctx context.Context, args map[string]interface{}) (types.ToolResult, error)

// Definition is a table entry describing one tool.
type Definition struct {
	Handler     Handler
	Parameters  map[string]interface{}
	Name        string
	Description string
}

// funcTool adapts a Definition to the Tool interface.
type funcTool struct {
	def Definition
}

// NewTool creates a Tool from a definition.
func NewTool(def Definition) Tool {
	return &funcTool{def: def}
}

func (t *funcTool) Name() string {
	return t.def.Name
}

func (t *funcTool) Description() string {
	return t.def.Description
}

func (t *funcTool) Schema() map[string]interface{} {
	if t.def.Parameters == nil {
		return BaseToolSchema(map[string]interface{}{}, nil)
	}
	return t.def.Parameters
}

func (t *funcTool) Execute(ctx context.Context, args map[string]interface{}) (types.ToolResult, error) {
	return t.def.Handler(ctx, args)
}

// BaseToolSchema creates a common JSON schema structure for a tool
// with the given properties and required fields
func BaseToolSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
