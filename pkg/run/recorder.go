// Package run holds the collaborators that accumulate the steps of one
// execution context: a test run, an explorer run or a crawler run.
package run

import "github.com/antiwork/shortest/pkg/types"

// Recorder receives one Step per executed tool call.
type Recorder interface {
	AddStep(step types.Step)
}

// NoopRecorder discards steps. It is used when no run context is supplied.
type NoopRecorder struct{}

// AddStep does nothing.
func (NoopRecorder) AddStep(types.Step) {}
