package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedProvider throttles generation calls of the wrapped provider.
// A single limiter may be shared by every client of a parallel test run.
type RateLimitedProvider struct {
	Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider wraps p so that at most requestsPerMinute calls are
// started per minute. A non-positive limit returns p unchanged.
func NewRateLimitedProvider(p Provider, requestsPerMinute int) Provider {
	if requestsPerMinute <= 0 {
		return p
	}
	perSecond := rate.Limit(float64(requestsPerMinute) / 60.0)
	return &RateLimitedProvider{
		Provider: p,
		limiter:  rate.NewLimiter(perSecond, 1),
	}
}

// Generate waits for the limiter and then delegates to the wrapped provider.
func (p *RateLimitedProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return p.Provider.Generate(ctx, req)
}
