// Package runner executes shortest test files and flow discovery. Every test
// case gets its own browser session, agent client and run record; discovery
// runs a single exploring action and turns the reported flows into test
// files.
package runner

import (
	"github.com/antiwork/shortest/pkg/agent"
	"github.com/antiwork/shortest/pkg/logging"
	"github.com/antiwork/shortest/pkg/store"
)

// DefaultParallel bounds concurrent test cases when no limit is given.
const DefaultParallel = 4

var runnerLog *logging.Logger

func init() {
	var err error
	runnerLog, err = logging.NewLogger("runner")
	if err != nil {
		runnerLog.Warnf("Failed to initialize runner logger, using stderr fallback: %v", err)
	}
}

type settings struct {
	reporter   Reporter
	runs       store.RunRepository
	artifacts  *ArtifactWriter
	clientOpts []agent.ClientOption
	root       string
	baseURL    string
	cacheDir   string
	outDir     string
	parallel   int
	noCache    bool
}

func newSettings(opts []Option) settings {
	s := settings{
		root:     ".",
		parallel: DefaultParallel,
		cacheDir: ".shortest",
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.reporter == nil {
		s.reporter = NewConsoleReporter(nil)
	}
	if s.parallel < 1 {
		s.parallel = 1
	}
	if s.outDir == "" {
		s.outDir = s.root
	}
	return s
}

// Option configures a runner.
type Option func(*settings)

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(s *settings) {
		s.reporter = r
	}
}

// WithRunRepository persists test runs and enables cache replay.
func WithRunRepository(repo store.RunRepository) Option {
	return func(s *settings) {
		s.runs = repo
	}
}

// WithArtifacts writes results.json and summary.md after each test run.
func WithArtifacts(w *ArtifactWriter) Option {
	return func(s *settings) {
		s.artifacts = w
	}
}

// WithClientOptions appends options to every agent client.
func WithClientOptions(opts ...agent.ClientOption) Option {
	return func(s *settings) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// WithRoot sets the directory test files are discovered in.
func WithRoot(root string) Option {
	return func(s *settings) {
		s.root = root
	}
}

// WithBaseURL sets the application URL passed to the model.
func WithBaseURL(url string) Option {
	return func(s *settings) {
		s.baseURL = url
	}
}

// WithCacheDir sets where discovered flows are stored.
func WithCacheDir(dir string) Option {
	return func(s *settings) {
		s.cacheDir = dir
	}
}

// WithOutputDir sets where discovered flows are written as test files.
func WithOutputDir(dir string) Option {
	return func(s *settings) {
		s.outDir = dir
	}
}

// WithParallel bounds the number of concurrent test cases.
func WithParallel(n int) Option {
	return func(s *settings) {
		s.parallel = n
	}
}

// WithNoCache disables cache replay. Runs are still persisted.
func WithNoCache(noCache bool) Option {
	return func(s *settings) {
		s.noCache = noCache
	}
}
