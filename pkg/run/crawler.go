package run

import (
	"sync"

	"github.com/antiwork/shortest/pkg/types"
)

// CrawlerRun collects literal steps and groups them into flows.
type CrawlerRun struct {
	flows        []CrawlerFlow
	currentSteps []FlowStep
	mu           sync.Mutex
}

// NewCrawlerRun creates an empty crawler run.
func NewCrawlerRun() *CrawlerRun {
	return &CrawlerRun{}
}

// AddStep appends a step to the flow in progress.
func (r *CrawlerRun) AddStep(step types.Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentSteps = append(r.currentSteps, FlowStepFromStep(step))
}

// FinalizeFlow closes the flow in progress under id.
func (r *CrawlerRun) FinalizeFlow(id string, reusable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	steps := make([]FlowStep, len(r.currentSteps))
	copy(steps, r.currentSteps)
	r.flows = append(r.flows, CrawlerFlow{ID: id, Steps: steps, Reusable: reusable})
	r.currentSteps = nil
}

// Flows returns the finalized flows.
func (r *CrawlerRun) Flows() []CrawlerFlow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CrawlerFlow, len(r.flows))
	copy(out, r.flows)
	return out
}

// PendingSteps returns the steps of the flow in progress.
func (r *CrawlerRun) PendingSteps() []FlowStep {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FlowStep, len(r.currentSteps))
	copy(out, r.currentSteps)
	return out
}
