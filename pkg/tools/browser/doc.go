// Package browser executes browser actions requested by the agent through
// Playwright.
//
// A SessionManager owns the Playwright driver and launches one isolated
// browser context per named session, so parallel tests never share cookies
// or storage. Each Session exposes an Executor that turns a
// types.ActionInput into a types.ToolResult:
//
//	manager := browser.NewSessionManager()
//	if err := manager.Initialize(browser.InstallOptions{}); err != nil {
//	    return err
//	}
//	defer manager.Shutdown()
//
//	session, err := manager.StartSession("login", browser.SessionOptions{Headless: true})
//	if err != nil {
//	    return err
//	}
//	exec := session.Executor("http://localhost:3000")
//	result, err := exec.Execute(ctx, types.ActionInput{Action: types.ActionNavigate, Text: "/login"})
//
// The executor talks to a narrow Page interface, which keeps it testable
// without a running browser.
package browser
