package testcase

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/antiwork/shortest/pkg/run"
)

// FlowPath maps a flow id such as "auth/login" to its file path under dir.
// Path segments become directories; unsafe segments are rejected.
func FlowPath(dir, id string) (string, error) {
	clean := path.Clean(strings.TrimSpace(id))
	if clean == "." || clean == "" || strings.HasPrefix(clean, "../") || clean == ".." || path.IsAbs(clean) {
		return "", fmt.Errorf("invalid flow id %q", id)
	}
	return filepath.Join(dir, filepath.FromSlash(clean)+FileSuffix), nil
}

// WriteExplorerFlows writes one test file per flow with the flow steps as
// natural language expectations. It returns the written paths.
func WriteExplorerFlows(flows []run.ExplorerFlow, dir string) ([]string, error) {
	written := make([]string, 0, len(flows))
	for _, flow := range flows {
		dest, err := FlowPath(dir, flow.ID)
		if err != nil {
			return written, err
		}
		file := &File{Tests: []Case{{Name: flow.ID, Steps: flow.Steps}}}
		if err := Save(dest, file); err != nil {
			return written, err
		}
		written = append(written, dest)
	}
	return written, nil
}

// WriteCrawlerFlows writes one test file per flow carrying the literal
// actions and a readable description of each.
func WriteCrawlerFlows(flows []run.CrawlerFlow, dir string) ([]string, error) {
	written := make([]string, 0, len(flows))
	for _, flow := range flows {
		dest, err := FlowPath(dir, flow.ID)
		if err != nil {
			return written, err
		}
		steps := make([]string, 0, len(flow.Steps))
		for _, step := range flow.Steps {
			steps = append(steps, describeFlowStep(step))
		}
		file := &File{Tests: []Case{{Name: flow.ID, Steps: steps, Actions: flow.Steps}}}
		if err := Save(dest, file); err != nil {
			return written, err
		}
		written = append(written, dest)
	}
	return written, nil
}

func describeFlowStep(step run.FlowStep) string {
	parts := []string{step.Action}
	if step.Selector != "" {
		parts = append(parts, step.Selector)
	}
	if step.Value != "" {
		parts = append(parts, fmt.Sprintf("%q", step.Value))
	}
	return strings.Join(parts, " ")
}
