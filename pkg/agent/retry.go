package agent

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/antiwork/shortest/pkg/llm"
	"github.com/cenkalti/backoff/v4"
)

// ErrorClassifier decides whether a failed attempt is worth retrying.
type ErrorClassifier interface {
	IsRetryable(err error) bool
}

// ClassifierFunc adapts a function to the ErrorClassifier interface.
type ClassifierFunc func(err error) bool

// IsRetryable calls f.
func (f ClassifierFunc) IsRetryable(err error) bool {
	return f(err)
}

// DefaultClassifier retries everything except typed domain errors that are
// fatal, authentication failures and caller cancellation.
type DefaultClassifier struct{}

// IsRetryable implements ErrorClassifier.
func (DefaultClassifier) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr.Retryable()
	}
	return llm.StatusCode(err) != http.StatusUnauthorized
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy computes the pause between attempts.
type RetryPolicy struct {
	// NewBackOff builds the delay sequence. It must be deterministic.
	NewBackOff func() backoff.BackOff

	// Sleep waits between attempts.
	Sleep SleepFunc
}

// DefaultRetryPolicy backs off exponentially from one second without jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.Multiplier = 2
			b.MaxInterval = 10 * time.Second
			b.RandomizationFactor = 0
			b.MaxElapsedTime = 0
			return b
		},
		Sleep: sleepContext,
	}
}

// ConstantRetryPolicy waits d between attempts.
func ConstantRetryPolicy(d time.Duration, sleep SleepFunc) RetryPolicy {
	if sleep == nil {
		sleep = sleepContext
	}
	return RetryPolicy{
		NewBackOff: func() backoff.BackOff { return backoff.NewConstantBackOff(d) },
		Sleep:      sleep,
	}
}

// Delay returns the pause after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.NewBackOff == nil || attempt < 1 {
		return 0
	}
	b := p.NewBackOff()
	b.Reset()
	d := time.Duration(0)
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
		if d == backoff.Stop {
			return 0
		}
	}
	return d
}

// Wait sleeps for the delay of attempt.
func (p RetryPolicy) Wait(ctx context.Context, attempt int) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return sleep(ctx, p.Delay(attempt))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
