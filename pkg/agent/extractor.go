package agent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/antiwork/shortest/pkg/llm/parser"
	"github.com/antiwork/shortest/pkg/run"
	"github.com/antiwork/shortest/pkg/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Verdict is the result of a test mode action.
type Verdict struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Passed reports whether the test passed.
func (v *Verdict) Passed() bool {
	return v.Status == "passed"
}

// ExplorerResult is the result of an explorer mode action.
type ExplorerResult struct {
	Flows []run.ExplorerFlow `json:"flows"`
}

// CrawlerResult is the result of a crawler mode action.
type CrawlerResult struct {
	Flows []run.CrawlerFlow `json:"flows"`
}

// ResultExtractor turns the final model text into the payload of a mode.
type ResultExtractor interface {
	Extract(text string, mode types.RunMode) (interface{}, error)
}

// JSONExtractor finds the JSON objects of a reply and returns the last one
// that satisfies the schema of the mode.
type JSONExtractor struct{}

// Extract implements ResultExtractor. Failures are retryable parse errors.
func (JSONExtractor) Extract(text string, mode types.RunMode) (interface{}, error) {
	candidates := parser.Candidates(text)
	if len(candidates) == 0 {
		return nil, NewAIError(ErrorTypeParse, "Invalid response format: no JSON object found", parser.ErrNoJSON)
	}

	var lastErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		payload, err := decodePayload(candidates[i], mode)
		if err == nil {
			return payload, nil
		}
		lastErr = err
	}
	return nil, NewAIError(ErrorTypeParse, "Invalid response format: "+lastErr.Error(), lastErr)
}

func decodePayload(raw string, mode types.RunMode) (interface{}, error) {
	var keys map[string]jsoniter.RawMessage
	if err := json.UnmarshalFromString(raw, &keys); err != nil {
		return nil, err
	}

	switch mode {
	case types.RunModeExplorer:
		if _, ok := keys["flows"]; !ok {
			return nil, errors.New(`missing "flows"`)
		}
		var result ExplorerResult
		if err := json.UnmarshalFromString(raw, &result); err != nil {
			return nil, fmt.Errorf("invalid flows: %w", err)
		}
		if result.Flows == nil {
			result.Flows = []run.ExplorerFlow{}
		}
		for i, flow := range result.Flows {
			if strings.TrimSpace(flow.ID) == "" {
				return nil, fmt.Errorf("flow %d has no id", i)
			}
		}
		return &result, nil

	case types.RunModeCrawler:
		if _, ok := keys["flows"]; !ok {
			return nil, errors.New(`missing "flows"`)
		}
		var result CrawlerResult
		if err := json.UnmarshalFromString(raw, &result); err != nil {
			return nil, fmt.Errorf("invalid flows: %w", err)
		}
		if result.Flows == nil {
			result.Flows = []run.CrawlerFlow{}
		}
		for i, flow := range result.Flows {
			if strings.TrimSpace(flow.ID) == "" {
				return nil, fmt.Errorf("flow %d has no id", i)
			}
			for j, step := range flow.Steps {
				if strings.TrimSpace(step.Action) == "" {
					return nil, fmt.Errorf("flow %q step %d has no action", flow.ID, j)
				}
			}
		}
		return &result, nil

	default:
		if _, ok := keys["reason"]; !ok {
			return nil, errors.New(`missing "reason"`)
		}
		var verdict Verdict
		if err := json.UnmarshalFromString(raw, &verdict); err != nil {
			return nil, fmt.Errorf("invalid verdict: %w", err)
		}
		if verdict.Status != "passed" && verdict.Status != "failed" {
			return nil, fmt.Errorf("invalid status %q", verdict.Status)
		}
		return &verdict, nil
	}
}
