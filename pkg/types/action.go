package types

import (
	"fmt"
	"strconv"
)

// Action names understood by browser executors.
const (
	ActionClick       = "click"
	ActionType        = "type"
	ActionKey         = "key"
	ActionScroll      = "scroll"
	ActionScreenshot  = "screenshot"
	ActionGetDOM      = "get_dom"
	ActionSetViewport = "set_viewport"
	ActionNavigate    = "navigate"
	ActionWait        = "wait"
)

// ActionInput is a single browser action handed to an executor.
type ActionInput struct {
	// Action is one of the Action* constants.
	Action string `json:"action" yaml:"action"`

	// Selector targets an element. Optional for coordinate based actions.
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`

	// Text is the value typed, the key pressed or the URL navigated to.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Direction is the scroll direction (up, down, left, right).
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"`

	// Coordinate is an optional [x, y] viewport position.
	Coordinate []int `json:"coordinate,omitempty" yaml:"coordinate,omitempty"`

	// Amount is the scroll distance in pixels.
	Amount int `json:"amount,omitempty" yaml:"amount,omitempty"`

	// Width and Height are used by set_viewport.
	Width  int `json:"width,omitempty" yaml:"width,omitempty"`
	Height int `json:"height,omitempty" yaml:"height,omitempty"`

	// Duration is the wait time in seconds.
	Duration float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Step is the recorded projection of one executed tool call.
type Step struct {
	// Args are the raw tool call arguments.
	Args map[string]interface{} `json:"args,omitempty"`

	Action   string `json:"action"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
	Result   string `json:"result"`
}

// NewStep projects a tool call and its result into a Step. The action is the
// tool name unless the arguments name one explicitly.
func NewStep(call ToolCall, result ToolResult) Step {
	step := Step{
		Action: call.Name,
		Args:   call.Arguments,
		Result: result.Text(),
	}
	if action := StringArg(call.Arguments, "action"); action != "" {
		step.Action = action
	}
	step.Selector = StringArg(call.Arguments, "selector")
	for _, key := range []string{"value", "text", "key", "url"} {
		if v := StringArg(call.Arguments, key); v != "" {
			step.Value = v
			break
		}
	}
	return step
}

// StringArg returns args[key] rendered as a string, or "" when absent.
func StringArg(args map[string]interface{}, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
