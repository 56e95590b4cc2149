package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/antiwork/shortest/pkg/agent"
	"github.com/antiwork/shortest/pkg/agent/tools"
	"github.com/antiwork/shortest/pkg/llm"
	"github.com/antiwork/shortest/pkg/run"
	"github.com/antiwork/shortest/pkg/testcase"
	"github.com/antiwork/shortest/pkg/types"
	"golang.org/x/sync/errgroup"
)

// ErrNoTests is returned when the pattern matches no test case.
var ErrNoTests = errors.New("no tests found")

// TestRunner runs test cases against a live application.
type TestRunner struct {
	provider llm.Provider
	sessions SessionFactory
	settings settings
	now      func() time.Time
}

// NewTestRunner creates a runner.
func NewTestRunner(provider llm.Provider, sessions SessionFactory, opts ...Option) *TestRunner {
	return &TestRunner{
		provider: provider,
		sessions: sessions,
		settings: newSettings(opts),
		now:      time.Now,
	}
}

type job struct {
	tc    testcase.Case
	index int
}

// Run discovers the test files matching pattern and runs every case, at most
// the configured number at a time. A failing case never stops the others.
// The returned summary holds one record per case in discovery order.
func (r *TestRunner) Run(ctx context.Context, pattern string) (*Summary, error) {
	files, err := testcase.Discover(r.settings.root, pattern)
	if err != nil {
		return nil, err
	}

	var jobs []job
	for _, file := range files {
		for _, tc := range file.Tests {
			jobs = append(jobs, job{tc: tc, index: len(jobs)})
		}
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w matching %q in %s", ErrNoTests, pattern, r.settings.root)
	}
	runnerLog.Infof("running %d test(s) from %d file(s), parallel=%d", len(jobs), len(files), r.settings.parallel)

	start := r.now()
	results := make([]run.Record, len(jobs))

	g := new(errgroup.Group)
	g.SetLimit(r.settings.parallel)
	for _, j := range jobs {
		g.Go(func() error {
			results[j.index] = r.runCase(ctx, j)
			return nil
		})
	}
	_ = g.Wait()

	summary := newSummary(results, r.now().Sub(start))
	r.settings.reporter.OnSummary(summary)
	if r.settings.artifacts != nil {
		if err := r.settings.artifacts.WriteAll(summary); err != nil {
			runnerLog.Warnf("failed to write artifacts: %v", err)
		}
	}
	return summary, ctx.Err()
}

func (r *TestRunner) runCase(ctx context.Context, j job) run.Record {
	tr := run.NewTestRun(j.tc.Name, j.tc.Key)
	tr.Start()
	r.execute(ctx, j, tr)

	rec := tr.Record()
	r.persist(ctx, rec)
	r.settings.reporter.OnTestResult(rec)
	return rec
}

func (r *TestRunner) execute(ctx context.Context, j job, tr *run.TestRun) {
	if err := ctx.Err(); err != nil {
		tr.Fail(err)
		return
	}

	session, err := r.sessions.NewSession(ctx, fmt.Sprintf("test-%d", j.index))
	if err != nil {
		tr.Fail(fmt.Errorf("failed to start browser session: %w", err))
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			runnerLog.Warnf("failed to close session for %q: %v", j.tc.Name, err)
		}
	}()

	registry := tools.NewBrowserRegistry(session.Executor())

	if r.replayCached(ctx, j.tc, registry, tr) {
		return
	}

	opts := append([]agent.ClientOption{}, r.settings.clientOpts...)
	opts = append(opts, agent.WithTestRun(tr))
	client, err := agent.NewClient(r.provider, registry, opts...)
	if err != nil {
		tr.Fail(err)
		return
	}

	result, err := client.RunAction(ctx, j.tc.Prompt(r.settings.baseURL))
	if err != nil {
		tr.Fail(err)
		return
	}
	verdict, ok := result.Verdict()
	if !ok {
		tr.Fail(errors.New("agent returned no verdict"))
		return
	}
	tr.Finish(verdict.Passed(), verdict.Reason, result.Metadata.Usage)
}

// replayCached re-executes the steps of the last passing run. It reports
// true when every step succeeded and the run was finished from cache.
func (r *TestRunner) replayCached(ctx context.Context, tc testcase.Case, registry *tools.Registry, tr *run.TestRun) bool {
	if r.settings.noCache || r.settings.runs == nil {
		return false
	}
	cached, ok, err := r.settings.runs.LatestPassed(ctx, tc.Key)
	if err != nil {
		runnerLog.Warnf("failed to read cached run for %q: %v", tc.Name, err)
		return false
	}
	if !ok || len(cached.Steps) == 0 {
		return false
	}

	replayed := make([]types.Step, 0, len(cached.Steps))
	for i, step := range cached.Steps {
		call := types.ToolCall{
			ID:        fmt.Sprintf("cache-%d", i),
			Name:      step.Action,
			Arguments: step.Args,
		}
		result := registry.Dispatch(ctx, call)
		if result.Error != "" {
			runnerLog.Infof("cache replay of %q failed at step %d (%s): %s", tc.Name, i+1, step.Action, result.Error)
			return false
		}
		replayed = append(replayed, types.NewStep(call, result))
	}

	for _, step := range replayed {
		tr.AddStep(step)
	}
	tr.MarkFromCache()
	tr.Finish(true, fmt.Sprintf("replayed %d cached step(s)", len(replayed)), types.Usage{})
	return true
}

func (r *TestRunner) persist(ctx context.Context, rec run.Record) {
	if r.settings.runs == nil {
		return
	}
	if err := r.settings.runs.SaveTestRun(context.WithoutCancel(ctx), rec); err != nil {
		runnerLog.Errorf("failed to save run of %q: %v", rec.TestName, err)
	}
}
