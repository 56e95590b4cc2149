package runner

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/antiwork/shortest/pkg/run"
	"github.com/antiwork/shortest/pkg/types"
)

// Summary aggregates the results of one TestRunner.Run.
type Summary struct {
	Results  []run.Record  `json:"results"`
	Usage    types.Usage   `json:"usage"`
	Duration time.Duration `json:"duration"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Cached   int           `json:"cached"`
}

func newSummary(results []run.Record, elapsed time.Duration) *Summary {
	s := &Summary{Results: results, Duration: elapsed}
	for _, rec := range results {
		switch rec.Status {
		case run.StatusPassed:
			s.Passed++
		default:
			s.Failed++
		}
		if rec.FromCache {
			s.Cached++
		}
		s.Usage = s.Usage.Add(rec.Usage)
	}
	return s
}

// Success reports whether every test passed.
func (s *Summary) Success() bool {
	return s.Failed == 0
}

// Reporter receives progress from the runners. Implementations must be safe
// for concurrent use; test results arrive from parallel workers.
type Reporter interface {
	OnTestResult(rec run.Record)
	OnSummary(summary *Summary)
	OnFlow(id string)
	OnRunEnd(flows int)
}

// ConsoleReporter renders progress to a terminal.
type ConsoleReporter struct {
	w  io.Writer
	mu sync.Mutex
}

// NewConsoleReporter returns a reporter writing to w, or stdout when w is nil.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleReporter{w: w}
}

// OnTestResult prints one line per finished test, with the failure reason.
func (r *ConsoleReporter) OnTestResult(rec run.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.Status == run.StatusPassed {
		line := passStyle.Render("✓ " + rec.TestName)
		if rec.FromCache {
			line += mutedStyle.Render(" (cached)")
		}
		fmt.Fprintf(r.w, "%s %s\n", line, mutedStyle.Render(formatDuration(rec.Duration())))
		return
	}
	fmt.Fprintf(r.w, "%s %s\n", failStyle.Render("✗ "+rec.TestName), mutedStyle.Render(formatDuration(rec.Duration())))
	if rec.Reason != "" {
		fmt.Fprintf(r.w, "  %s\n", mutedStyle.Render(rec.Reason))
	}
}

// OnSummary prints the totals and the token usage of the run.
func (r *ConsoleReporter) OnSummary(s *Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.w)
	status := passStyle.Render(fmt.Sprintf("%d passed", s.Passed))
	if s.Failed > 0 {
		status += ", " + failStyle.Render(fmt.Sprintf("%d failed", s.Failed))
	}
	fmt.Fprintf(r.w, "%s %s (%d total) in %s\n", totalStyle.Render("Tests:"), status, len(s.Results), formatDuration(s.Duration))
	if s.Cached > 0 {
		fmt.Fprintf(r.w, "%s %d replayed from cache\n", totalStyle.Render("Cache:"), s.Cached)
	}
	fmt.Fprintf(r.w, "%s %s\n", totalStyle.Render("Tokens:"), mutedStyle.Render(fmt.Sprintf(
		"%d total (%d prompt, %d completion)",
		s.Usage.TotalTokens, s.Usage.PromptTokens, s.Usage.CompletionTokens,
	)))
}

// OnFlow prints a discovered flow.
func (r *ConsoleReporter) OnFlow(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, passStyle.Render("✓ discovered flow: "+id))
}

// OnRunEnd prints the number of discovered flows.
func (r *ConsoleReporter) OnRunEnd(flows int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, totalStyle.Render(fmt.Sprintf("Discovered %d flow(s)", flows)))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
