package client

import (
	"context"
	"fmt"

	"duel_portfolio/internal/domain/entity"

	"golang.org/x/time/rate"
)

// NewLimiter builds the shared RPC limiter. A non-positive rate disables limiting.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func waitLimiter(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", entity.ErrUpstreamUnavailable, err)
	}
	return nil
}
