package run

import (
	"sync"

	"github.com/antiwork/shortest/pkg/types"
)

// ExplorerRun collects the steps of an exploration and groups them into
// natural language flows.
type ExplorerRun struct {
	flows        []ExplorerFlow
	steps        []types.Step
	currentSteps []types.Step
	mu           sync.Mutex
}

// NewExplorerRun creates an empty explorer run.
func NewExplorerRun() *ExplorerRun {
	return &ExplorerRun{}
}

// AddStep records a step.
func (r *ExplorerRun) AddStep(step types.Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
	r.currentSteps = append(r.currentSteps, step)
}

// FinalizeFlow closes the flow in progress under id, describing each step.
func (r *ExplorerRun) FinalizeFlow(id string, reusable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	descriptions := make([]string, 0, len(r.currentSteps))
	for _, step := range r.currentSteps {
		descriptions = append(descriptions, Describe(step))
	}
	r.flows = append(r.flows, ExplorerFlow{ID: id, Steps: descriptions, Reusable: reusable})
	r.currentSteps = nil
}

// Steps returns every recorded step.
func (r *ExplorerRun) Steps() []types.Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Flows returns the finalized flows.
func (r *ExplorerRun) Flows() []ExplorerFlow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ExplorerFlow, len(r.flows))
	copy(out, r.flows)
	return out
}
