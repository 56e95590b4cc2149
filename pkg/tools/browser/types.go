package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session is an isolated browser context with a single page.
type Session struct {
	// Name identifies the session within its manager (usually the test key).
	Name string

	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	Headless  bool
	CreatedAt time.Time
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout is the default action timeout in milliseconds
	Timeout float64

	Headless bool
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// InstallOptions controls the Playwright driver bootstrap.
type InstallOptions struct {
	// SkipInstall assumes the driver and chromium are already present.
	SkipInstall bool

	// Verbose forwards installer output to stderr.
	Verbose bool
}

// Default values for browser sessions
const (
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
	DefaultNavTimeout     = 60000.0
	DefaultDOMMaxLength   = 50000
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 8
)
