package remote

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles outbound API calls. The remote endpoints enforce
// per-tenant request quotas; staying under them avoids 429 churn during
// imports of large configurations.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewLimiter returns a token-bucket limiter allowing roughly perSecond
// requests per second with a small burst.
func NewLimiter(perSecond float64, burst int) Limiter {
	if perSecond <= 0 {
		return NoopLimiter{}
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// NoopLimiter performs no throttling.
type NoopLimiter struct{}

func (NoopLimiter) Wait(ctx context.Context) error {
	return ctx.Err()
}
