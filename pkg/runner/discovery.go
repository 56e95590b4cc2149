package runner

import (
	"context"
	"fmt"

	"github.com/antiwork/shortest/pkg/agent"
	"github.com/antiwork/shortest/pkg/agent/prompts"
	"github.com/antiwork/shortest/pkg/agent/tools"
	"github.com/antiwork/shortest/pkg/llm"
	"github.com/antiwork/shortest/pkg/run"
	"github.com/antiwork/shortest/pkg/store"
	"github.com/antiwork/shortest/pkg/testcase"
)

// DiscoveryInstruction is the task given to explorer and crawler agents.
const DiscoveryInstruction = "Explore the application"

// ExplorerRunner discovers user flows described in natural language.
type ExplorerRunner struct {
	provider llm.Provider
	sessions SessionFactory
	flows    *store.FlowRepository[run.ExplorerFlow]
	settings settings
}

// NewExplorerRunner creates an explorer runner.
func NewExplorerRunner(provider llm.Provider, sessions SessionFactory, opts ...Option) *ExplorerRunner {
	s := newSettings(opts)
	return &ExplorerRunner{
		provider: provider,
		sessions: sessions,
		flows:    store.NewExplorerFlowRepository(s.cacheDir),
		settings: s,
	}
}

// DiscoverFlows runs one exploring action. An agent failure is logged and
// yields no flows. Discovered flows are cached and written as test files;
// only those writes can fail the call.
func (r *ExplorerRunner) DiscoverFlows(ctx context.Context) ([]run.ExplorerFlow, error) {
	er := run.NewExplorerRun()
	flows := []run.ExplorerFlow{}

	result, err := discover(ctx, r.provider, r.sessions, r.settings, "explorer", agent.WithExplorerRun(er))
	if err != nil {
		runnerLog.Errorf("Explorer exploration failed: %v", err)
	} else {
		flows = append(flows, result.ExplorerFlows()...)
	}

	for _, flow := range flows {
		r.settings.reporter.OnFlow(flow.ID)
	}
	r.settings.reporter.OnRunEnd(len(flows))
	if len(flows) == 0 {
		return flows, nil
	}

	if err := r.flows.Save(flows); err != nil {
		return flows, err
	}
	written, err := testcase.WriteExplorerFlows(flows, r.settings.outDir)
	if err != nil {
		return flows, fmt.Errorf("failed to write test files: %w", err)
	}
	runnerLog.Infof("wrote %d test file(s) to %s", len(written), r.settings.outDir)
	return flows, nil
}

// CrawlerRunner discovers user flows as literal browser actions.
type CrawlerRunner struct {
	provider llm.Provider
	sessions SessionFactory
	flows    *store.FlowRepository[run.CrawlerFlow]
	settings settings
}

// NewCrawlerRunner creates a crawler runner.
func NewCrawlerRunner(provider llm.Provider, sessions SessionFactory, opts ...Option) *CrawlerRunner {
	s := newSettings(opts)
	return &CrawlerRunner{
		provider: provider,
		sessions: sessions,
		flows:    store.NewCrawlerFlowRepository(s.cacheDir),
		settings: s,
	}
}

// DiscoverFlows behaves like ExplorerRunner.DiscoverFlows for crawled flows.
func (r *CrawlerRunner) DiscoverFlows(ctx context.Context) ([]run.CrawlerFlow, error) {
	cr := run.NewCrawlerRun()
	flows := []run.CrawlerFlow{}

	result, err := discover(ctx, r.provider, r.sessions, r.settings, "crawler", agent.WithCrawlerRun(cr))
	if err != nil {
		runnerLog.Errorf("Crawler exploration failed: %v", err)
	} else {
		flows = append(flows, result.CrawlerFlows()...)
	}

	for _, flow := range flows {
		r.settings.reporter.OnFlow(flow.ID)
	}
	r.settings.reporter.OnRunEnd(len(flows))
	if len(flows) == 0 {
		return flows, nil
	}

	if err := r.flows.Save(flows); err != nil {
		return flows, err
	}
	written, err := testcase.WriteCrawlerFlows(flows, r.settings.outDir)
	if err != nil {
		return flows, fmt.Errorf("failed to write test files: %w", err)
	}
	runnerLog.Infof("wrote %d test file(s) to %s", len(written), r.settings.outDir)
	return flows, nil
}

func discover(ctx context.Context, provider llm.Provider, sessions SessionFactory, s settings, name string, runOpt agent.ClientOption) (*agent.ActionResult, error) {
	session, err := sessions.NewSession(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			runnerLog.Warnf("failed to close %s session: %v", name, err)
		}
	}()

	opts := append([]agent.ClientOption{}, s.clientOpts...)
	opts = append(opts, runOpt)
	client, err := agent.NewClient(provider, tools.NewBrowserRegistry(session.Executor()), opts...)
	if err != nil {
		return nil, err
	}

	instruction := DiscoveryInstruction
	if s.baseURL != "" {
		instruction = prompts.FormatTaskPrompt(instruction, map[string]string{"base_url": s.baseURL})
	}
	return client.RunAction(ctx, instruction)
}
