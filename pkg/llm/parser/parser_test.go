package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestThinkingParserWithLessThanGreaterThan verifies that thinking content
// containing < or > characters does not prevent </thinking> from being detected.
func TestThinkingParserWithLessThanGreaterThan(t *testing.T) {
	text := "<thinking>\n1. `if x>3{`\n2. `for i:=0;i<10;i++{`\n</thinking>\n\n<b>done</b>"

	thinking, message := NewThinkingParser().Parse(text)

	assert.Contains(t, thinking, "x>3")
	assert.Contains(t, thinking, "i<10")
	assert.Equal(t, "\n\n<b>done</b>", message)
}

func TestStripThinking_Unterminated(t *testing.T) {
	assert.Equal(t, "before ", StripThinking("before <thinking>never closed"))
	assert.Equal(t, "a < b", StripThinking("a < b"))
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "bare object",
			text:     `{"status":"passed","reason":"ok"}`,
			expected: []string{`{"status":"passed","reason":"ok"}`},
		},
		{
			name:     "prose around object with loose spacing",
			text:     "The test is complete.\n{ \"status\" :  \"passed\" ,\n \"reason\":\"test passed\" }\nThanks.",
			expected: []string{"{ \"status\" :  \"passed\" ,\n \"reason\":\"test passed\" }"},
		},
		{
			name:     "fenced block",
			text:     "Result:\n```json\n{\"flows\": []}\n```",
			expected: []string{`{"flows": []}`},
		},
		{
			name:     "braces inside strings",
			text:     `{"reason":"button {Submit} missing","status":"failed"}`,
			expected: []string{`{"reason":"button {Submit} missing","status":"failed"}`},
		},
		{
			name:     "invalid object skipped",
			text:     `{not json} and {"status":"failed","reason":"x"}`,
			expected: []string{`{"status":"failed","reason":"x"}`},
		},
		{
			name:     "thinking ignored",
			text:     `<thinking>{"status":"failed","reason":"draft"}</thinking>{"status":"passed","reason":"final"}`,
			expected: []string{`{"status":"passed","reason":"final"}`},
		},
		{
			name:     "unmatched brace in prose",
			text:     `The page shows {placeholder text. Final: {"status":"passed","reason":"ok"}`,
			expected: []string{`{"status":"passed","reason":"ok"}`},
		},
		{
			name:     "stray quote after unmatched brace",
			text:     `Saw {"unterminated and then {"status":"failed","reason":"x"}`,
			expected: []string{`{"status":"failed","reason":"x"}`},
		},
		{
			name: "no json",
			text: "I could not finish the task.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Candidates(tt.text))
		})
	}
}

func TestExtractJSONPayload(t *testing.T) {
	var out struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}

	err := ExtractJSONPayload(`{"status": "passed", "reason": "test passed"}`, &out)
	require.NoError(t, err)
	assert.Equal(t, "passed", out.Status)
	assert.Equal(t, "test passed", out.Reason)

	err = ExtractJSONPayload("nothing here", &out)
	assert.ErrorIs(t, err, ErrNoJSON)
}
