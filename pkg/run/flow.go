package run

import (
	"fmt"
	"strings"

	"github.com/antiwork/shortest/pkg/types"
)

// FlowStep is a literal browser action of a crawled flow.
type FlowStep struct {
	Action   string `json:"action" yaml:"action"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
}

// CrawlerFlow is a named sequence of literal browser actions.
type CrawlerFlow struct {
	ID       string     `json:"id" yaml:"id"`
	Steps    []FlowStep `json:"steps" yaml:"steps"`
	Reusable bool       `json:"reusable,omitempty" yaml:"reusable,omitempty"`
}

// ExplorerFlow is a named sequence of user intentions in natural language.
type ExplorerFlow struct {
	ID       string   `json:"id" yaml:"id"`
	Steps    []string `json:"steps" yaml:"steps"`
	Reusable bool     `json:"reusable,omitempty" yaml:"reusable,omitempty"`
}

// FlowStepFromStep keeps the literal part of a recorded step.
func FlowStepFromStep(step types.Step) FlowStep {
	return FlowStep{Action: step.Action, Selector: step.Selector, Value: step.Value}
}

// Describe renders a recorded step as a short sentence.
func Describe(step types.Step) string {
	target := step.Selector
	if target == "" {
		if coord, ok := step.Args["coordinate"].([]interface{}); ok && len(coord) == 2 {
			target = fmt.Sprintf("(%v, %v)", coord[0], coord[1])
		}
	}

	switch step.Action {
	case types.ActionClick:
		return strings.TrimSpace("click " + target)
	case types.ActionType:
		if target == "" {
			return fmt.Sprintf("type %q", step.Value)
		}
		return fmt.Sprintf("type %q into %s", step.Value, target)
	case types.ActionKey:
		return "press " + step.Value
	case types.ActionNavigate:
		return "open " + step.Value
	case types.ActionScroll:
		return strings.TrimSpace("scroll " + types.StringArg(step.Args, "direction"))
	default:
		return strings.TrimSpace(strings.ReplaceAll(step.Action, "_", " ") + " " + target)
	}
}
