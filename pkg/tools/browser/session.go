package browser

import (
	"errors"

	"github.com/playwright-community/playwright-go"
)

// Executor returns an action executor bound to the session page.
func (s *Session) Executor(baseURL string, opts ...ExecutorOption) *Executor {
	opts = append([]ExecutorOption{WithBaseURL(baseURL)}, opts...)
	return NewExecutor(NewPlaywrightPage(s.Page), opts...)
}

func (s *Session) close() error {
	var errs []error
	if s.Page != nil {
		errs = append(errs, s.Page.Close())
	}
	if s.Context != nil {
		errs = append(errs, s.Context.Close())
	}
	if s.Browser != nil {
		errs = append(errs, s.Browser.Close())
	}
	return errors.Join(errs...)
}

// playwrightPage adapts a playwright.Page to Page.
type playwrightPage struct {
	page playwright.Page
}

// NewPlaywrightPage wraps a Playwright page.
func NewPlaywrightPage(page playwright.Page) Page {
	return &playwrightPage{page: page}
}

func (p *playwrightPage) Click(selector string) error {
	return p.page.Click(selector)
}

func (p *playwrightPage) ClickAt(x, y float64) error {
	return p.page.Mouse().Click(x, y)
}

func (p *playwrightPage) Fill(selector, text string) error {
	return p.page.Fill(selector, text)
}

func (p *playwrightPage) InsertText(text string) error {
	return p.page.Keyboard().InsertText(text)
}

func (p *playwrightPage) Press(key string) error {
	return p.page.Keyboard().Press(key)
}

func (p *playwrightPage) Scroll(x, y, deltaX, deltaY float64) error {
	mouse := p.page.Mouse()
	if x >= 0 && y >= 0 {
		if err := mouse.Move(x, y); err != nil {
			return err
		}
	}
	return mouse.Wheel(deltaX, deltaY)
}

func (p *playwrightPage) Screenshot() ([]byte, error) {
	return p.page.Screenshot()
}

func (p *playwrightPage) HTML(selector string) (string, error) {
	if selector == "" {
		return p.page.Content()
	}
	return p.page.Locator(selector).First().InnerHTML()
}

func (p *playwrightPage) SetViewport(width, height int) error {
	return p.page.SetViewportSize(width, height)
}

func (p *playwrightPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}
