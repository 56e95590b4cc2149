package run

import (
	"sync"
	"time"

	"github.com/antiwork/shortest/pkg/types"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a test run.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
)

// Record is a point in time copy of a TestRun, suitable for persistence and
// reporting.
type Record struct {
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	ID         string       `json:"id"`
	TestName   string       `json:"testName"`
	TestKey    string       `json:"testKey"`
	Status     Status       `json:"status"`
	Reason     string       `json:"reason,omitempty"`
	Steps      []types.Step `json:"steps"`
	Usage      types.Usage  `json:"usage"`
	FromCache  bool         `json:"fromCache,omitempty"`
}

// Duration returns how long the run took.
func (r Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TestRun tracks the execution of one test case.
type TestRun struct {
	now    func() time.Time
	record Record
	mu     sync.Mutex
}

// NewTestRun creates a pending run. key identifies the test across runs
// (typically file path and test name).
func NewTestRun(name, key string) *TestRun {
	return &TestRun{
		now: time.Now,
		record: Record{
			ID:       uuid.New().String(),
			TestName: name,
			TestKey:  key,
			Status:   StatusPending,
		},
	}
}

// AddStep records a step.
func (r *TestRun) AddStep(step types.Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.Steps = append(r.record.Steps, step)
}

// Start marks the run as running.
func (r *TestRun) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.Status = StatusRunning
	r.record.StartedAt = r.now()
}

// MarkFromCache flags a run replayed from cached steps.
func (r *TestRun) MarkFromCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.FromCache = true
}

// Finish completes the run with a verdict.
func (r *TestRun) Finish(passed bool, reason string, usage types.Usage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record.Status = StatusFailed
	if passed {
		r.record.Status = StatusPassed
	}
	r.record.Reason = reason
	r.record.Usage = r.record.Usage.Add(usage)
	r.record.FinishedAt = r.now()
}

// Fail completes the run with an error.
func (r *TestRun) Fail(err error) {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	r.Finish(false, reason, types.Usage{})
}

// Status returns the current status.
func (r *TestRun) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record.Status
}

// Steps returns the recorded steps.
func (r *TestRun) Steps() []types.Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Step, len(r.record.Steps))
	copy(out, r.record.Steps)
	return out
}

// Record returns a copy of the run state.
func (r *TestRun) Record() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.record
	rec.Steps = make([]types.Step, len(r.record.Steps))
	copy(rec.Steps, r.record.Steps)
	return rec
}
