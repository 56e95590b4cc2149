package main

import (
	"context"
	"fmt"

	"github.com/antiwork/shortest/pkg/agent"
	"github.com/antiwork/shortest/pkg/agent/prompts"
	"github.com/antiwork/shortest/pkg/config"
	"github.com/antiwork/shortest/pkg/llm"
	"github.com/antiwork/shortest/pkg/llm/tokenizer"
	"github.com/antiwork/shortest/pkg/runner"
	"github.com/antiwork/shortest/pkg/tools/browser"
	"github.com/antiwork/shortest/pkg/types"
)

// app holds the collaborators of a browser backed command.
type app struct {
	cfg      *config.Config
	provider llm.Provider
	manager  *browser.SessionManager
	sessions *runner.ManagedSessions
}

func newApp(ctx context.Context, cfg *config.Config, maxSessions int) (*app, error) {
	provider, err := config.BuildProvider(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}

	manager := browser.NewSessionManager()
	manager.SetMaxSessions(maxSessions)
	if err := manager.Initialize(browser.InstallOptions{SkipInstall: cfg.Browser.SkipInstall}); err != nil {
		return nil, fmt.Errorf("failed to start browser driver: %w", err)
	}

	opts := browser.SessionOptions{
		Headless: cfg.Browser.Headless,
		Timeout:  cfg.Browser.TimeoutMs,
	}
	if cfg.Browser.ViewportWidth > 0 && cfg.Browser.ViewportHeight > 0 {
		opts.Viewport = &browser.Viewport{Width: cfg.Browser.ViewportWidth, Height: cfg.Browser.ViewportHeight}
	}

	return &app{
		cfg:      cfg,
		provider: provider,
		manager:  manager,
		sessions: runner.NewManagedSessions(manager, opts, cfg.Browser.BaseURL,
			browser.WithDOMMaxLength(cfg.Browser.DOMMaxLength)),
	}, nil
}

// clientOptions configures every agent client the runners create.
func (a *app) clientOptions() []agent.ClientOption {
	opts := []agent.ClientOption{
		agent.WithConfig(a.cfg.Agent.ClientConfig()),
		agent.WithPromptBuilder(prompts.NewPromptBuilder().WithCustomInstructions(a.cfg.Agent.CustomInstructions)),
		agent.WithEventHandler(logEvent),
	}
	tok, err := tokenizer.New()
	if err != nil {
		cliLog.Warnf("token estimation disabled: %v", err)
	} else {
		opts = append(opts, agent.WithTokenizer(tok))
	}
	return opts
}

// runnerOptions are the options shared by all runners.
func (a *app) runnerOptions() []runner.Option {
	return []runner.Option{
		runner.WithBaseURL(a.cfg.Browser.BaseURL),
		runner.WithCacheDir(a.cfg.Store.CacheDir),
		runner.WithClientOptions(a.clientOptions()...),
	}
}

func (a *app) Close() error {
	return a.manager.Shutdown()
}

func logEvent(event *types.AgentEvent) {
	switch event.Type {
	case types.EventTypeToolCall:
		cliLog.Debugf("tool call %s %v", event.ToolName, event.ToolInput)
	case types.EventTypeToolResultError:
		cliLog.Debugf("tool %s failed: %v", event.ToolName, event.Error)
	case types.EventTypeRetry:
		cliLog.Infof("retrying (attempt %d): %v", event.Attempt, event.Error)
	case types.EventTypeError:
		cliLog.Debugf("action failed: %v", event.Error)
	}
}
