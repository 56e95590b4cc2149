package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/antiwork/shortest/pkg/llm"
	"github.com/antiwork/shortest/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIError_IsByType(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewAIError(ErrorTypeTokenLimit, MessageTokenLimit, nil))

	assert.ErrorIs(t, err, ErrTokenLimit)
	assert.NotErrorIs(t, err, ErrUnsafeContent)
	assert.Equal(t, ErrorTypeTokenLimit, TypeOf(err))
}

func TestAIError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewAIError(ErrorTypeMaxRetries, MessageMaxRetries, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Max retries reached", err.Error())
	assert.Equal(t, "AIError", err.Name())
}

func TestDefaultClassifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain error", errors.New("timeout"), true},
		{"server error", &llm.StatusError{StatusCode: http.StatusBadGateway, Err: errors.New("bad gateway")}, true},
		{"rate limited", &llm.StatusError{StatusCode: http.StatusTooManyRequests, Err: errors.New("slow down")}, true},
		{"unauthorized", &llm.StatusError{StatusCode: http.StatusUnauthorized, Err: errors.New("bad key")}, false},
		{"parse error", NewAIError(ErrorTypeParse, "Invalid response format", nil), true},
		{"content filter", NewAIError(ErrorTypeUnsafeContent, MessageUnsafeContent, nil), false},
		{"max turns", NewAIError(ErrorTypeMaxTurns, "Max turns reached", nil), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"nil", nil, false},
	}

	var classifier DefaultClassifier
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.IsRetryable(tt.err))
		})
	}
}

func TestRetryPolicy_Delay(t *testing.T) {
	policy := DefaultRetryPolicy()

	assert.Equal(t, time.Duration(0), policy.Delay(0))
	assert.Equal(t, time.Second, policy.Delay(1))
	assert.Equal(t, 2*time.Second, policy.Delay(2))
	assert.Equal(t, 4*time.Second, policy.Delay(3))
	assert.Equal(t, 10*time.Second, policy.Delay(10))
}

func TestRetryPolicy_WaitHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DefaultRetryPolicy().Wait(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONExtractor(t *testing.T) {
	var ex JSONExtractor

	t.Run("whitespace around payload", func(t *testing.T) {
		payload, err := ex.Extract("\n\n   {\"status\": \"failed\", \"reason\": \"no button\"}   \n", types.RunModeTest)
		require.NoError(t, err)
		assert.Equal(t, &Verdict{Status: "failed", Reason: "no button"}, payload)
	})

	t.Run("last valid candidate wins", func(t *testing.T) {
		text := `Considering {"status":"maybe"} first. Final: {"status":"passed","reason":"ok"}`
		payload, err := ex.Extract(text, types.RunModeNone)
		require.NoError(t, err)
		assert.Equal(t, "passed", payload.(*Verdict).Status)
	})

	t.Run("unmatched brace in prose", func(t *testing.T) {
		text := "The page shows {placeholder text. Final: {\"status\": \"passed\", \"reason\": \"ok\"}"
		payload, err := ex.Extract(text, types.RunModeTest)
		require.NoError(t, err)
		assert.Equal(t, &Verdict{Status: "passed", Reason: "ok"}, payload)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := ex.Extract(`{"status":"unknown","reason":"?"}`, types.RunModeTest)
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("missing reason", func(t *testing.T) {
		_, err := ex.Extract(`{"status":"passed"}`, types.RunModeTest)
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("empty flows", func(t *testing.T) {
		payload, err := ex.Extract(`{"flows": []}`, types.RunModeExplorer)
		require.NoError(t, err)
		assert.Empty(t, payload.(*ExplorerResult).Flows)
	})

	t.Run("flow without id", func(t *testing.T) {
		_, err := ex.Extract(`{"flows":[{"steps":["a"]}]}`, types.RunModeExplorer)
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("crawler step without action", func(t *testing.T) {
		_, err := ex.Extract(`{"flows":[{"id":"x","steps":[{"selector":"#a"}]}]}`, types.RunModeCrawler)
		assert.ErrorIs(t, err, ErrParse)
	})
}
