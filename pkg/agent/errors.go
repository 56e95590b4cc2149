package agent

import (
	"context"
	"errors"
	"net/http"

	"github.com/antiwork/shortest/pkg/llm"
)

// ErrorType is the stable machine readable kind of an AIError.
type ErrorType string

const (
	ErrorTypeUnsafeContent ErrorType = "unsafe-content-detected" // content filter stopped generation
	ErrorTypeTokenLimit    ErrorType = "token-limit-exceeded"    // generation hit the length limit
	ErrorTypeUnknown       ErrorType = "unknown"                 // unclassified finish reason
	ErrorTypeMaxTurns      ErrorType = "max-turns-reached"       // runaway tool loop
	ErrorTypeMaxRetries    ErrorType = "max-retries-reached"     // retries exhausted
	ErrorTypeAuth          ErrorType = "auth-error"              // provider rejected the credentials
	ErrorTypeParse         ErrorType = "parse-error"             // malformed final payload
	ErrorTypeTransient     ErrorType = "transient"               // network or provider hiccup
)

// Fixed messages of the fatal finish reasons.
const (
	MessageUnsafeContent = "Content filter violation: generation aborted."
	MessageTokenLimit    = "Generation stopped because the maximum token length was reached."
	MessageUnknown       = "An error occurred during generation."
	MessageMaxRetries    = "Max retries reached"
)

// AIError is a classified failure of an action. Name, Message and Type form
// a stable triple that reporters can show without the underlying cause.
type AIError struct {
	Err     error
	Type    ErrorType
	Message string
}

// NewAIError creates an AIError wrapping cause.
func NewAIError(errType ErrorType, message string, cause error) *AIError {
	return &AIError{Type: errType, Message: message, Err: cause}
}

func (e *AIError) Error() string {
	return e.Message
}

// Name returns the error class name.
func (e *AIError) Name() string {
	return "AIError"
}

func (e *AIError) Unwrap() error {
	return e.Err
}

// Is matches another AIError of the same type.
func (e *AIError) Is(target error) bool {
	var t *AIError
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// Retryable reports whether a fresh attempt may succeed.
func (e *AIError) Retryable() bool {
	return e.Type == ErrorTypeParse || e.Type == ErrorTypeTransient
}

// Sentinels for errors.Is checks.
var (
	ErrUnsafeContent = &AIError{Type: ErrorTypeUnsafeContent, Message: MessageUnsafeContent}
	ErrTokenLimit    = &AIError{Type: ErrorTypeTokenLimit, Message: MessageTokenLimit}
	ErrUnknown       = &AIError{Type: ErrorTypeUnknown, Message: MessageUnknown}
	ErrMaxTurns      = &AIError{Type: ErrorTypeMaxTurns, Message: "Max turns reached"}
	ErrMaxRetries    = &AIError{Type: ErrorTypeMaxRetries, Message: MessageMaxRetries}
	ErrParse         = &AIError{Type: ErrorTypeParse, Message: "Invalid response format"}
)

// TypeOf classifies any error returned by RunAction for reporting.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr.Type
	}
	if llm.StatusCode(err) == http.StatusUnauthorized {
		return ErrorTypeAuth
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeUnknown
	}
	return ErrorTypeTransient
}
