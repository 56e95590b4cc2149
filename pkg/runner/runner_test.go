package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/antiwork/shortest/pkg/agent"
	"github.com/antiwork/shortest/pkg/agent/tools"
	"github.com/antiwork/shortest/pkg/llm"
	"github.com/antiwork/shortest/pkg/run"
	"github.com/antiwork/shortest/pkg/store"
	"github.com/antiwork/shortest/pkg/testcase"
	"github.com/antiwork/shortest/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var usage = types.Usage{PromptTokens: 10, CompletionTokens: 2, TotalTokens: 12}

// funcProvider answers every request with respond.
type funcProvider struct {
	respond func(req *llm.Request) (*llm.Response, error)
	mu      sync.Mutex
	calls   int
}

func (p *funcProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.respond(req)
}

func (p *funcProvider) Name() string     { return "func" }
func (p *funcProvider) GetModel() string { return "func-model" }

func (p *funcProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// clickThenVerdict clicks once, then fails tests whose prompt mentions
// "rejected" and passes the rest.
func clickThenVerdict(req *llm.Request) (*llm.Response, error) {
	last := req.Messages[len(req.Messages)-1]
	if last.Role != types.RoleTool {
		return &llm.Response{
			ToolCalls: []types.ToolCall{{
				ID:        "call-1",
				Name:      types.ActionClick,
				Arguments: map[string]interface{}{"selector": "#submit"},
			}},
			FinishReason: types.FinishReasonToolCalls,
			Usage:        usage,
		}, nil
	}
	status := "passed"
	if strings.Contains(req.Messages[0].Content, "rejected") {
		status = "failed"
	}
	return &llm.Response{
		Text:         fmt.Sprintf(`{"status":%q,"reason":"checked"}`, status),
		FinishReason: types.FinishReasonStop,
		Usage:        usage,
	}, nil
}

type fakeSession struct {
	factory *fakeSessions
}

func (s *fakeSession) Executor() tools.Executor {
	return tools.ExecutorFunc(func(ctx context.Context, input types.ActionInput) (types.ToolResult, error) {
		return s.factory.execute(input)
	})
}

func (s *fakeSession) Close() error {
	s.factory.mu.Lock()
	defer s.factory.mu.Unlock()
	s.factory.open--
	s.factory.closed++
	return nil
}

type fakeSessions struct {
	failOn  string
	inputs  []types.ActionInput
	names   []string
	mu      sync.Mutex
	open    int
	maxOpen int
	closed  int
}

func (f *fakeSessions) NewSession(ctx context.Context, name string) (BrowserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	f.open++
	if f.open > f.maxOpen {
		f.maxOpen = f.open
	}
	return &fakeSession{factory: f}, nil
}

func (f *fakeSessions) execute(input types.ActionInput) (types.ToolResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	if input.Action == f.failOn {
		return types.ToolResult{}, errors.New("element not found")
	}
	return types.ToolResult{Output: "ok"}, nil
}

// memoryRuns is an in-memory RunRepository.
type memoryRuns struct {
	mu   sync.Mutex
	runs []run.Record
}

func (m *memoryRuns) SaveTestRun(ctx context.Context, rec run.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, rec)
	return nil
}

func (m *memoryRuns) LatestPassed(ctx context.Context, testKey string) (run.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.runs) - 1; i >= 0; i-- {
		if rec := m.runs[i]; rec.TestKey == testKey && rec.Status == run.StatusPassed && !rec.FromCache {
			return rec, true, nil
		}
	}
	return run.Record{}, false, nil
}

func (m *memoryRuns) ListRuns(ctx context.Context, testKey string, limit int) ([]run.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []run.Record
	for _, rec := range m.runs {
		if testKey == "" || rec.TestKey == testKey {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryRuns) Close() error { return nil }

var _ store.RunRepository = (*memoryRuns)(nil)

type recordingReporter struct {
	mu      sync.Mutex
	results []run.Record
	summary *Summary
	flows   []string
	ended   int
}

func (r *recordingReporter) OnTestResult(rec run.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, rec)
}

func (r *recordingReporter) OnSummary(s *Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = s
}

func (r *recordingReporter) OnFlow(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows = append(r.flows, id)
}

func (r *recordingReporter) OnRunEnd(flows int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = flows
}

func noSleep() agent.RetryPolicy {
	return agent.ConstantRetryPolicy(0, func(context.Context, time.Duration) error { return nil })
}

func writeTests(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

const authTests = `
tests:
  - name: user can log in
    steps: [the dashboard is shown]
  - name: wrong password is rejected
`

const cartTests = `
tests:
  - name: add to cart
  - name: remove from cart
`

func TestTestRunner_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	writeTests(t, root, map[string]string{
		"auth.test.yaml":      authTests,
		"shop/cart.test.yaml": cartTests,
	})

	provider := &funcProvider{respond: clickThenVerdict}
	sessions := &fakeSessions{}
	runs := &memoryRuns{}
	reporter := &recordingReporter{}
	artifactDir := filepath.Join(root, ".shortest", "results")

	runner := NewTestRunner(provider, sessions,
		WithRoot(root),
		WithParallel(2),
		WithRunRepository(runs),
		WithReporter(reporter),
		WithArtifacts(NewArtifactWriter(artifactDir)),
		WithClientOptions(agent.WithRetryPolicy(noSleep())),
	)

	summary, err := runner.Run(context.Background(), "**.test.yaml")
	require.NoError(t, err)

	require.Len(t, summary.Results, 4)
	names := make([]string, 0, len(summary.Results))
	for _, rec := range summary.Results {
		names = append(names, rec.TestName)
		assert.Len(t, rec.Steps, 1, rec.TestName)
		assert.Equal(t, types.ActionClick, rec.Steps[0].Action)
	}
	assert.Equal(t, []string{"user can log in", "wrong password is rejected", "add to cart", "remove from cart"}, names)
	assert.Equal(t, 3, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.Success())
	assert.Equal(t, 4*2*usage.TotalTokens, summary.Usage.TotalTokens)
	assert.Equal(t, "auth.test.yaml#wrong password is rejected", summary.Results[1].TestKey)
	assert.Equal(t, run.StatusFailed, summary.Results[1].Status)

	assert.LessOrEqual(t, sessions.maxOpen, 2)
	assert.Equal(t, 4, sessions.closed)
	assert.Len(t, runs.runs, 4)
	assert.Len(t, reporter.results, 4)
	assert.Same(t, summary, reporter.summary)

	assert.FileExists(t, filepath.Join(artifactDir, "results.json"))
	assert.FileExists(t, filepath.Join(artifactDir, "summary.md"))
}

func TestTestRunner_NoTests(t *testing.T) {
	runner := NewTestRunner(&funcProvider{respond: clickThenVerdict}, &fakeSessions{},
		WithRoot(t.TempDir()), WithReporter(&recordingReporter{}))

	_, err := runner.Run(context.Background(), "**.test.yaml")
	assert.ErrorIs(t, err, ErrNoTests)
}

func cachedLogin() run.Record {
	return run.Record{
		ID:       "previous",
		TestName: "user can log in",
		TestKey:  "login.test.yaml#user can log in",
		Status:   run.StatusPassed,
		Steps: []types.Step{
			{Action: types.ActionNavigate, Args: map[string]interface{}{"url": "/login"}},
			{Action: types.ActionClick, Args: map[string]interface{}{"selector": "#submit"}},
		},
	}
}

func TestTestRunner_ReplaysCachedSteps(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	writeTests(t, root, map[string]string{"login.test.yaml": "tests:\n  - name: user can log in\n"})

	provider := &funcProvider{respond: clickThenVerdict}
	sessions := &fakeSessions{}
	runs := &memoryRuns{runs: []run.Record{cachedLogin()}}

	runner := NewTestRunner(provider, sessions,
		WithRoot(root), WithRunRepository(runs), WithReporter(&recordingReporter{}))

	summary, err := runner.Run(context.Background(), "login.test.yaml")
	require.NoError(t, err)

	assert.Equal(t, 0, provider.count())
	rec := summary.Results[0]
	assert.Equal(t, run.StatusPassed, rec.Status)
	assert.True(t, rec.FromCache)
	assert.Len(t, rec.Steps, 2)
	assert.Equal(t, 1, summary.Cached)

	require.Len(t, sessions.inputs, 2)
	assert.Equal(t, types.ActionInput{Action: types.ActionNavigate, Text: "/login"}, sessions.inputs[0])
	assert.Equal(t, types.ActionInput{Action: types.ActionClick, Selector: "#submit"}, sessions.inputs[1])
}

func TestTestRunner_FailedReplayFallsBackToAgent(t *testing.T) {
	root := t.TempDir()
	writeTests(t, root, map[string]string{"login.test.yaml": "tests:\n  - name: user can log in\n"})

	provider := &funcProvider{respond: func(req *llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: `{"status":"passed","reason":"ok"}`, FinishReason: types.FinishReasonStop, Usage: usage}, nil
	}}
	sessions := &fakeSessions{failOn: types.ActionClick}
	runs := &memoryRuns{runs: []run.Record{cachedLogin()}}

	runner := NewTestRunner(provider, sessions,
		WithRoot(root), WithRunRepository(runs), WithReporter(&recordingReporter{}))

	summary, err := runner.Run(context.Background(), "login.test.yaml")
	require.NoError(t, err)

	rec := summary.Results[0]
	assert.Equal(t, 1, provider.count())
	assert.Equal(t, run.StatusPassed, rec.Status)
	assert.False(t, rec.FromCache)
	assert.Empty(t, rec.Steps, "steps of an aborted replay are not recorded")
}

func TestTestRunner_NoCache(t *testing.T) {
	root := t.TempDir()
	writeTests(t, root, map[string]string{"login.test.yaml": "tests:\n  - name: user can log in\n"})

	provider := &funcProvider{respond: clickThenVerdict}
	runs := &memoryRuns{runs: []run.Record{cachedLogin()}}

	runner := NewTestRunner(provider, &fakeSessions{},
		WithRoot(root), WithRunRepository(runs), WithNoCache(true), WithReporter(&recordingReporter{}))

	summary, err := runner.Run(context.Background(), "login.test.yaml")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.count())
	assert.False(t, summary.Results[0].FromCache)
	assert.Len(t, runs.runs, 2, "the run is still persisted")
}

func TestTestRunner_AgentErrorFailsOnlyThatTest(t *testing.T) {
	root := t.TempDir()
	writeTests(t, root, map[string]string{"auth.test.yaml": authTests})

	provider := &funcProvider{respond: func(req *llm.Request) (*llm.Response, error) {
		if strings.Contains(req.Messages[0].Content, "rejected") {
			return nil, &llm.StatusError{Provider: "func", StatusCode: 401}
		}
		return clickThenVerdict(req)
	}}

	runner := NewTestRunner(provider, &fakeSessions{},
		WithRoot(root), WithReporter(&recordingReporter{}),
		WithClientOptions(agent.WithRetryPolicy(noSleep())))

	summary, err := runner.Run(context.Background(), "auth.test.yaml")
	require.NoError(t, err)
	assert.Equal(t, run.StatusPassed, summary.Results[0].Status)
	assert.Equal(t, run.StatusFailed, summary.Results[1].Status)
	assert.Contains(t, summary.Results[1].Reason, "401")
}

func TestTestRunner_CanceledContext(t *testing.T) {
	root := t.TempDir()
	writeTests(t, root, map[string]string{"auth.test.yaml": authTests})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &funcProvider{respond: clickThenVerdict}
	runner := NewTestRunner(provider, &fakeSessions{}, WithRoot(root), WithReporter(&recordingReporter{}))

	summary, err := runner.Run(ctx, "auth.test.yaml")
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 0, provider.count())
}

func TestExplorerRunner_DiscoverFlows(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	provider := &funcProvider{respond: func(req *llm.Request) (*llm.Response, error) {
		return &llm.Response{
			Text:         `{"flows":[{"id":"auth/login","steps":["user can login","dashboard is shown"]}]}`,
			FinishReason: types.FinishReasonStop,
			Usage:        usage,
		}, nil
	}}
	reporter := &recordingReporter{}

	runner := NewExplorerRunner(provider, &fakeSessions{},
		WithCacheDir(filepath.Join(dir, ".shortest")),
		WithOutputDir(filepath.Join(dir, "tests")),
		WithBaseURL("http://localhost:3000"),
		WithReporter(reporter))

	flows, err := runner.DiscoverFlows(context.Background())
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, []string{"auth/login"}, reporter.flows)
	assert.Equal(t, 1, reporter.ended)

	cached := store.NewExplorerFlowRepository(filepath.Join(dir, ".shortest")).Load()
	assert.Equal(t, flows, cached)

	file, err := testcase.Load(filepath.Join(dir, "tests"), "auth/login.test.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"user can login", "dashboard is shown"}, file.Tests[0].Steps)
}

func TestExplorerRunner_FailureYieldsNoFlows(t *testing.T) {
	dir := t.TempDir()
	provider := &funcProvider{respond: func(req *llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: "I could not find anything", FinishReason: types.FinishReasonStop, Usage: usage}, nil
	}}
	reporter := &recordingReporter{}

	runner := NewExplorerRunner(provider, &fakeSessions{},
		WithCacheDir(filepath.Join(dir, ".shortest")),
		WithOutputDir(filepath.Join(dir, "tests")),
		WithReporter(reporter),
		WithClientOptions(agent.WithRetryPolicy(noSleep())))

	flows, err := runner.DiscoverFlows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, flows)
	assert.NotNil(t, flows)
	assert.Equal(t, 3, provider.count())
	assert.Equal(t, 0, reporter.ended)
	assert.NoDirExists(t, filepath.Join(dir, "tests"))
}

func TestCrawlerRunner_DiscoverFlows(t *testing.T) {
	dir := t.TempDir()
	provider := &funcProvider{respond: func(req *llm.Request) (*llm.Response, error) {
		return &llm.Response{
			Text:         `{"flows":[{"id":"search","steps":[{"action":"type","selector":"#q","value":"shoes"}],"reusable":true}]}`,
			FinishReason: types.FinishReasonStop,
			Usage:        usage,
		}, nil
	}}
	sessions := &fakeSessions{}

	runner := NewCrawlerRunner(provider, sessions,
		WithCacheDir(filepath.Join(dir, ".shortest")),
		WithOutputDir(filepath.Join(dir, "tests")),
		WithReporter(&recordingReporter{}))

	flows, err := runner.DiscoverFlows(context.Background())
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.True(t, flows[0].Reusable)
	assert.Equal(t, []string{"crawler"}, sessions.names)
	assert.Equal(t, 1, sessions.closed)

	file, err := testcase.Load(filepath.Join(dir, "tests"), "search.test.yaml")
	require.NoError(t, err)
	assert.Equal(t, flows[0].Steps, file.Tests[0].Actions)
}
