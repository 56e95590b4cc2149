package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/antiwork/shortest/pkg/types"
)

// Page is the subset of a browser page the executor drives.
type Page interface {
	Click(selector string) error
	ClickAt(x, y float64) error
	Fill(selector, text string) error
	InsertText(text string) error
	Press(key string) error
	// Scroll moves the wheel by delta, first hovering (x, y) when both are
	// non-negative.
	Scroll(x, y, deltaX, deltaY float64) error
	Screenshot() ([]byte, error)
	// HTML returns the page content, or the inner HTML of the first element
	// matching selector.
	HTML(selector string) (string, error)
	SetViewport(width, height int) error
	Goto(url string) error
	URL() string
}

// Executor runs browser actions on a Page.
type Executor struct {
	page         Page
	sleep        func(ctx context.Context, d time.Duration) error
	baseURL      string
	domMaxLength int
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithBaseURL sets the URL relative navigation resolves against.
func WithBaseURL(baseURL string) ExecutorOption {
	return func(e *Executor) {
		e.baseURL = strings.TrimSpace(baseURL)
	}
}

// WithDOMMaxLength caps the size of get_dom output.
func WithDOMMaxLength(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.domMaxLength = n
		}
	}
}

// WithSleep replaces the wait implementation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ExecutorOption {
	return func(e *Executor) {
		e.sleep = sleep
	}
}

// NewExecutor creates an executor for page.
func NewExecutor(page Page, opts ...ExecutorOption) *Executor {
	e := &Executor{
		page:         page,
		sleep:        sleepContext,
		domMaxLength: DefaultDOMMaxLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute performs input. Action failures are returned as errors; the tool
// registry turns them into tool results.
func (e *Executor) Execute(ctx context.Context, input types.ActionInput) (types.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return types.ToolResult{}, err
	}

	switch input.Action {
	case types.ActionClick:
		return e.click(input)
	case types.ActionType:
		return e.typeText(input)
	case types.ActionKey:
		if err := e.page.Press(input.Text); err != nil {
			return types.ToolResult{}, fmt.Errorf("key press %q failed: %w", input.Text, err)
		}
		return e.result(fmt.Sprintf("Pressed %s", input.Text)), nil
	case types.ActionScroll:
		return e.scroll(input)
	case types.ActionScreenshot:
		return e.screenshot()
	case types.ActionGetDOM:
		return e.getDOM(input)
	case types.ActionSetViewport:
		if err := e.page.SetViewport(input.Width, input.Height); err != nil {
			return types.ToolResult{}, fmt.Errorf("set viewport failed: %w", err)
		}
		return e.result(fmt.Sprintf("Viewport set to %dx%d", input.Width, input.Height)), nil
	case types.ActionNavigate:
		return e.navigate(input)
	case types.ActionWait:
		d := time.Duration(input.Duration * float64(time.Second))
		if err := e.sleep(ctx, d); err != nil {
			return types.ToolResult{}, err
		}
		return e.result(fmt.Sprintf("Waited %gs", input.Duration)), nil
	default:
		return types.ToolResult{}, fmt.Errorf("unsupported action %q", input.Action)
	}
}

func (e *Executor) click(input types.ActionInput) (types.ToolResult, error) {
	if input.Selector != "" {
		if err := e.page.Click(input.Selector); err != nil {
			return types.ToolResult{}, fmt.Errorf("click %s failed: %w", input.Selector, err)
		}
		return e.result("Clicked " + input.Selector), nil
	}
	if len(input.Coordinate) != 2 {
		return types.ToolResult{}, fmt.Errorf("click requires a selector or a coordinate")
	}
	x, y := input.Coordinate[0], input.Coordinate[1]
	if err := e.page.ClickAt(float64(x), float64(y)); err != nil {
		return types.ToolResult{}, fmt.Errorf("click at (%d, %d) failed: %w", x, y, err)
	}
	return e.result(fmt.Sprintf("Clicked at (%d, %d)", x, y)), nil
}

func (e *Executor) typeText(input types.ActionInput) (types.ToolResult, error) {
	if input.Selector != "" {
		if err := e.page.Fill(input.Selector, input.Text); err != nil {
			return types.ToolResult{}, fmt.Errorf("fill %s failed: %w", input.Selector, err)
		}
		return e.result(fmt.Sprintf("Filled %s", input.Selector)), nil
	}
	if err := e.page.InsertText(input.Text); err != nil {
		return types.ToolResult{}, fmt.Errorf("typing failed: %w", err)
	}
	return e.result(fmt.Sprintf("Typed %d characters", len(input.Text))), nil
}

func (e *Executor) scroll(input types.ActionInput) (types.ToolResult, error) {
	amount := float64(input.Amount)
	var dx, dy float64
	switch input.Direction {
	case "up":
		dy = -amount
	case "down":
		dy = amount
	case "left":
		dx = -amount
	case "right":
		dx = amount
	default:
		return types.ToolResult{}, fmt.Errorf("unsupported direction %q", input.Direction)
	}

	x, y := -1.0, -1.0
	if len(input.Coordinate) == 2 {
		x, y = float64(input.Coordinate[0]), float64(input.Coordinate[1])
	}
	if err := e.page.Scroll(x, y, dx, dy); err != nil {
		return types.ToolResult{}, fmt.Errorf("scroll failed: %w", err)
	}
	return e.result(fmt.Sprintf("Scrolled %s by %dpx", input.Direction, input.Amount)), nil
}

func (e *Executor) screenshot() (types.ToolResult, error) {
	data, err := e.page.Screenshot()
	if err != nil {
		return types.ToolResult{}, fmt.Errorf("screenshot failed: %w", err)
	}
	result := e.result("Screenshot captured")
	result.Base64Image = base64.StdEncoding.EncodeToString(data)
	return result, nil
}

func (e *Executor) getDOM(input types.ActionInput) (types.ToolResult, error) {
	raw, err := e.page.HTML(input.Selector)
	if err != nil {
		return types.ToolResult{}, fmt.Errorf("get_dom failed: %w", err)
	}
	cleaned, err := CleanDOM(raw, e.domMaxLength)
	if err != nil {
		return types.ToolResult{}, err
	}

	result := e.result(cleaned.HTML)
	if cleaned.Title != "" {
		result.Metadata["title"] = cleaned.Title
	}
	if cleaned.Truncated {
		result.Metadata["truncated"] = true
	}
	return result, nil
}

func (e *Executor) navigate(input types.ActionInput) (types.ToolResult, error) {
	target, err := ResolveURL(e.baseURL, input.Text)
	if err != nil {
		return types.ToolResult{}, err
	}
	if err := e.page.Goto(target); err != nil {
		return types.ToolResult{}, fmt.Errorf("navigation to %s failed: %w", target, err)
	}
	return e.result("Navigated to " + e.page.URL()), nil
}

// result builds a successful result carrying the current URL.
func (e *Executor) result(output string) types.ToolResult {
	return types.ToolResult{
		Output:   output,
		Metadata: map[string]interface{}{"url": e.page.URL()},
	}
}

// ResolveURL resolves target against base. Absolute targets are returned
// unchanged; relative ones require a base.
func ResolveURL(base, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("url is required")
	}
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", target, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if base == "" {
		return "", fmt.Errorf("relative url %q without a base url", target)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
