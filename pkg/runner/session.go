package runner

import (
	"context"

	"github.com/antiwork/shortest/pkg/agent/tools"
	"github.com/antiwork/shortest/pkg/tools/browser"
)

// BrowserSession is an isolated browser context driven by one agent.
type BrowserSession interface {
	Executor() tools.Executor
	Close() error
}

// SessionFactory opens browser sessions.
type SessionFactory interface {
	NewSession(ctx context.Context, name string) (BrowserSession, error)
}

// ManagedSessions opens sessions through a browser.SessionManager.
type ManagedSessions struct {
	manager  *browser.SessionManager
	opts     browser.SessionOptions
	baseURL  string
	execOpts []browser.ExecutorOption
}

// NewManagedSessions returns a factory whose executors resolve relative
// URLs against baseURL.
func NewManagedSessions(manager *browser.SessionManager, opts browser.SessionOptions, baseURL string, execOpts ...browser.ExecutorOption) *ManagedSessions {
	return &ManagedSessions{
		manager:  manager,
		opts:     opts,
		baseURL:  baseURL,
		execOpts: execOpts,
	}
}

// NewSession starts a named session.
func (m *ManagedSessions) NewSession(ctx context.Context, name string) (BrowserSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session, err := m.manager.StartSession(name, m.opts)
	if err != nil {
		return nil, err
	}
	return &managedSession{
		manager:  m.manager,
		session:  session,
		executor: session.Executor(m.baseURL, m.execOpts...),
	}, nil
}

type managedSession struct {
	manager  *browser.SessionManager
	session  *browser.Session
	executor *browser.Executor
}

func (s *managedSession) Executor() tools.Executor {
	return s.executor
}

func (s *managedSession) Close() error {
	return s.manager.CloseSession(s.session.Name)
}
