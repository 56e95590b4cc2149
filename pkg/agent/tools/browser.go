package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/antiwork/shortest/pkg/types"
)

const (
	// DefaultScrollAmount is the scroll distance in pixels when none is given.
	DefaultScrollAmount = 500

	// MaxWaitSeconds caps the wait tool.
	MaxWaitSeconds = 30
)

// Executor performs browser actions. It is implemented by the browser
// package and by fakes in tests.
type Executor interface {
	Execute(ctx context.Context, input types.ActionInput) (types.ToolResult, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, input types.ActionInput) (types.ToolResult, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, input types.ActionInput) (types.ToolResult, error) {
	return f(ctx, input)
}

// actionArgs is the superset of arguments accepted by the browser tools.
type actionArgs struct {
	Coordinate []float64 `json:"coordinate"`
	X          *float64  `json:"x"`
	Y          *float64  `json:"y"`
	Selector   string    `json:"selector"`
	Text       string    `json:"text"`
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Direction  string    `json:"direction"`
	Amount     float64   `json:"amount"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Duration   float64   `json:"duration"`
}

func decodeArgs(name string, args map[string]interface{}) (actionArgs, error) {
	var out actionArgs
	data, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("invalid arguments for %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("invalid arguments for %s: %w", name, err)
	}
	return out, nil
}

func (a actionArgs) coordinate() []int {
	if len(a.Coordinate) == 2 {
		return []int{int(a.Coordinate[0]), int(a.Coordinate[1])}
	}
	if a.X != nil && a.Y != nil {
		return []int{int(*a.X), int(*a.Y)}
	}
	return nil
}

type inputBuilder func(args actionArgs) (types.ActionInput, error)

func browserHandler(exec Executor, name string, build inputBuilder) Handler {
	return func(ctx context.Context, raw map[string]interface{}) (types.ToolResult, error) {
		args, err := decodeArgs(name, raw)
		if err != nil {
			return types.ToolResult{}, err
		}
		input, err := build(args)
		if err != nil {
			return types.ToolResult{}, fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
		input.Action = name
		return exec.Execute(ctx, input)
	}
}

var (
	selectorProperty = map[string]interface{}{
		"type":        "string",
		"description": "CSS or Playwright selector of the target element",
	}
	coordinateProperty = map[string]interface{}{
		"type":        "array",
		"description": "[x, y] position relative to the viewport",
		"items":       map[string]interface{}{"type": "integer"},
	}
)

// BrowserTools returns the fixed browser tool table backed by exec.
func BrowserTools(exec Executor) []Tool {
	defs := []Definition{
		{
			Name:        types.ActionClick,
			Description: "Click an element, either by selector or at viewport coordinates.",
			Parameters: BaseToolSchema(map[string]interface{}{
				"selector":   selectorProperty,
				"coordinate": coordinateProperty,
			}, nil),
			Handler: browserHandler(exec, types.ActionClick, func(a actionArgs) (types.ActionInput, error) {
				coord := a.coordinate()
				if a.Selector == "" && coord == nil {
					return types.ActionInput{}, errors.New("either selector or coordinate is required")
				}
				return types.ActionInput{Selector: a.Selector, Coordinate: coord}, nil
			}),
		},
		{
			Name:        types.ActionType,
			Description: "Type text. With a selector the field is filled, otherwise keystrokes go to the focused element.",
			Parameters: BaseToolSchema(map[string]interface{}{
				"text":     map[string]interface{}{"type": "string", "description": "Text to type"},
				"selector": selectorProperty,
			}, []string{"text"}),
			Handler: browserHandler(exec, types.ActionType, func(a actionArgs) (types.ActionInput, error) {
				if a.Text == "" {
					return types.ActionInput{}, errors.New("text is required")
				}
				return types.ActionInput{Selector: a.Selector, Text: a.Text}, nil
			}),
		},
		{
			Name:        types.ActionKey,
			Description: "Press a key or key combination such as Enter, Tab or Control+A.",
			Parameters: BaseToolSchema(map[string]interface{}{
				"key": map[string]interface{}{"type": "string", "description": "Key name understood by Playwright"},
			}, []string{"key"}),
			Handler: browserHandler(exec, types.ActionKey, func(a actionArgs) (types.ActionInput, error) {
				key := a.Key
				if key == "" {
					key = a.Text
				}
				if key == "" {
					return types.ActionInput{}, errors.New("key is required")
				}
				return types.ActionInput{Text: key}, nil
			}),
		},
		{
			Name:        types.ActionScroll,
			Description: "Scroll the page.",
			Parameters: BaseToolSchema(map[string]interface{}{
				"direction": map[string]interface{}{
					"type": "string",
					"enum": []string{"up", "down", "left", "right"},
				},
				"amount":     map[string]interface{}{"type": "integer", "description": "Distance in pixels"},
				"coordinate": coordinateProperty,
			}, []string{"direction"}),
			Handler: browserHandler(exec, types.ActionScroll, func(a actionArgs) (types.ActionInput, error) {
				direction := strings.ToLower(a.Direction)
				if direction == "" {
					direction = "down"
				}
				switch direction {
				case "up", "down", "left", "right":
				default:
					return types.ActionInput{}, fmt.Errorf("unsupported direction %q", a.Direction)
				}
				amount := int(a.Amount)
				if amount <= 0 {
					amount = DefaultScrollAmount
				}
				return types.ActionInput{Direction: direction, Amount: amount, Coordinate: a.coordinate()}, nil
			}),
		},
		{
			Name:        types.ActionScreenshot,
			Description: "Capture a screenshot of the current viewport.",
			Parameters:  BaseToolSchema(map[string]interface{}{}, nil),
			Handler: browserHandler(exec, types.ActionScreenshot, func(a actionArgs) (types.ActionInput, error) {
				return types.ActionInput{}, nil
			}),
		},
		{
			Name:        types.ActionGetDOM,
			Description: "Return the cleaned HTML of the page or of the element matching selector.",
			Parameters: BaseToolSchema(map[string]interface{}{
				"selector": selectorProperty,
			}, nil),
			Handler: browserHandler(exec, types.ActionGetDOM, func(a actionArgs) (types.ActionInput, error) {
				return types.ActionInput{Selector: a.Selector}, nil
			}),
		},
		{
			Name:        types.ActionSetViewport,
			Description: "Resize the browser viewport.",
			Parameters: BaseToolSchema(map[string]interface{}{
				"width":  map[string]interface{}{"type": "integer"},
				"height": map[string]interface{}{"type": "integer"},
			}, []string{"width", "height"}),
			Handler: browserHandler(exec, types.ActionSetViewport, func(a actionArgs) (types.ActionInput, error) {
				if a.Width <= 0 || a.Height <= 0 {
					return types.ActionInput{}, errors.New("width and height must be positive")
				}
				return types.ActionInput{Width: int(a.Width), Height: int(a.Height)}, nil
			}),
		},
		{
			Name:        types.ActionNavigate,
			Description: "Open a URL. Relative paths resolve against the application base URL.",
			Parameters: BaseToolSchema(map[string]interface{}{
				"url": map[string]interface{}{"type": "string"},
			}, []string{"url"}),
			Handler: browserHandler(exec, types.ActionNavigate, func(a actionArgs) (types.ActionInput, error) {
				if a.URL == "" {
					return types.ActionInput{}, errors.New("url is required")
				}
				return types.ActionInput{Text: a.URL}, nil
			}),
		},
		{
			Name:        types.ActionWait,
			Description: "Wait for the given number of seconds.",
			Parameters: BaseToolSchema(map[string]interface{}{
				"duration": map[string]interface{}{"type": "number", "description": "Seconds to wait"},
			}, []string{"duration"}),
			Handler: browserHandler(exec, types.ActionWait, func(a actionArgs) (types.ActionInput, error) {
				if a.Duration <= 0 {
					return types.ActionInput{}, errors.New("duration must be positive")
				}
				duration := a.Duration
				if duration > MaxWaitSeconds {
					duration = MaxWaitSeconds
				}
				return types.ActionInput{Duration: duration}, nil
			}),
		},
	}

	out := make([]Tool, 0, len(defs))
	for _, def := range defs {
		out = append(out, NewTool(def))
	}
	return out
}

// NewBrowserRegistry returns a registry of the browser tools backed by exec.
func NewBrowserRegistry(exec Executor) *Registry {
	r, err := NewRegistry(BrowserTools(exec)...)
	if err != nil {
		// The table is static; a duplicate is a programming error.
		panic(err)
	}
	return r
}
