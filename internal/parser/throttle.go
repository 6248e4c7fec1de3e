package parser

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"solarops/internal/domain"
)

// NewLimiter returns a limiter allowing rpm requests per minute with a burst
// of one. rpm <= 0 disables throttling.
func NewLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// Wait blocks on the limiter and reports cancellation as an ExtractionError.
func Wait(ctx context.Context, provider string, l *rate.Limiter) error {
	if err := l.Wait(ctx); err != nil {
		return domain.NewExtractionError(provider, "throttle wait", err)
	}
	return nil
}
