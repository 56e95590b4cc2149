package tools

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/antiwork/shortest/pkg/llm"
	"github.com/antiwork/shortest/pkg/logging"
	"github.com/antiwork/shortest/pkg/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var toolsLog, _ = logging.NewLogger("tools")

// Registry is the fixed set of tools exposed to the model.
type Registry struct {
	byName map[string]Tool
	tools  []Tool
}

// NewRegistry creates a registry. Tool names must be unique.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]Tool, len(tools)),
		tools:  make([]Tool, 0, len(tools)),
	}
	for _, tool := range tools {
		name := tool.Name()
		if name == "" {
			return nil, fmt.Errorf("tool name cannot be empty")
		}
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("duplicate tool %q", name)
		}
		r.byName[name] = tool
		r.tools = append(r.tools, tool)
	}
	return r, nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.byName[name]
	return tool, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for _, tool := range r.tools {
		names = append(names, tool.Name())
	}
	return names
}

// Descriptors returns the tool declarations sent to the model.
func (r *Registry) Descriptors() []llm.ToolDescriptor {
	out := make([]llm.ToolDescriptor, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, llm.ToolDescriptor{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Schema(),
		})
	}
	return out
}

// Dispatch executes call and never fails: unknown tools, malformed arguments,
// executor errors and panics are all reported in the returned ToolResult so
// the model can observe the failure and adapt.
func (r *Registry) Dispatch(ctx context.Context, call types.ToolCall) (result types.ToolResult) {
	tool, ok := r.byName[call.Name]
	if !ok {
		return types.ToolResult{
			Error: fmt.Sprintf("unknown tool %q; available tools: %s", call.Name, strings.Join(r.Names(), ", ")),
		}
	}

	args := call.Arguments
	if raw := strings.TrimSpace(call.RawArguments); raw != "" && !json.Valid([]byte(raw)) {
		return types.ToolResult{Error: fmt.Sprintf("invalid arguments for %s: malformed JSON", call.Name)}
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	defer func() {
		if rec := recover(); rec != nil {
			toolsLog.Errorf("tool %s panicked: %v\n%s", call.Name, rec, debug.Stack())
			result = types.ToolResult{Error: fmt.Sprintf("tool %s failed: %v", call.Name, rec)}
		}
	}()

	out, err := tool.Execute(ctx, args)
	if err != nil {
		toolsLog.Debugf("tool %s returned error: %v", call.Name, err)
		return types.ToolResult{Error: err.Error(), Metadata: out.Metadata}
	}
	return out
}
