package parser

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"solarops/internal/domain"
)

// circuitState tracks rate-limit backoff for a single provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackExtractor tries providers in order, skipping those with open circuits.
type FallbackExtractor struct {
	providers []Provider
	circuits  []*circuitState
	names     []string
	now       func() time.Time
}

// NewFallbackExtractor creates a FallbackExtractor from an ordered list of providers and their names.
func NewFallbackExtractor(providers []Provider, names []string) *FallbackExtractor {
	circuits := make([]*circuitState, len(providers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackExtractor{
		providers: providers,
		circuits:  circuits,
		names:     names,
		now:       time.Now,
	}
}

func (f *FallbackExtractor) ExtractFields(ctx context.Context, text string) (*domain.FieldSet, error) {
	var out *domain.FieldSet
	err := f.try(ctx, func(p Provider) error {
		fs, err := p.ExtractFields(ctx, text)
		if err == nil {
			out = fs
		}
		return err
	})
	return out, err
}

func (f *FallbackExtractor) Complete(ctx context.Context, system, prompt string) (string, error) {
	var out string
	err := f.try(ctx, func(p Provider) error {
		s, err := p.Complete(ctx, system, prompt)
		if err == nil {
			out = s
		}
		return err
	})
	return out, err
}

func (f *FallbackExtractor) try(ctx context.Context, call func(Provider) error) error {
	now := f.now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, p := range f.providers {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			zap.L().Info("parser.FallbackExtractor: skipping provider",
				zap.String("provider", f.names[i]), zap.Time("circuit_open_until", resetAt))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}
		if ctx.Err() != nil {
			return domain.NewExtractionError("all", "context done", ctx.Err())
		}

		err := call(p)
		if err == nil {
			return nil
		}

		zap.L().Warn("parser.FallbackExtractor: provider failed",
			zap.String("provider", f.names[i]), zap.Error(err))
		lastErr = err

		if rlErr, ok := AsRateLimit(err); ok {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	if lastErr == nil || allRateLimited {
		retryAfter := earliestReset.Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return rateLimited("all", errors.New("all providers rate limited"), int(retryAfter.Seconds()))
	}

	return domain.NewExtractionError("all", "all providers failed", lastErr)
}
