package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryProvider repeats failed calls with exponential backoff.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	// jitter maps a base delay to the delay actually slept.
	jitter func(time.Duration) time.Duration
}

// WithRetry wraps p. A MaxAttempts of 1 or less makes a single attempt.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg, jitter: spread}
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.config.MaxAttempts, 1)
	schemaRetried := false

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(r.delay(attempt-1, err))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !retryable(err) {
			return nil, err
		}
		// A reply that failed its schema is worth one more try, not more.
		var invalid *ErrInvalidResponse
		if errors.As(err, &invalid) {
			if schemaRetried {
				return nil, err
			}
			schemaRetried = true
		}
	}
	return nil, err
}

// delay is the pause after the given failed attempt. An upstream
// Retry-After wins over the computed backoff. Both are capped at MaxWait.
func (r *RetryProvider) delay(attempt int, err error) time.Duration {
	limit := r.config.MaxWait
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		if limit > 0 {
			return min(rl.RetryAfter, limit)
		}
		return rl.RetryAfter
	}
	mult := r.config.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(r.config.InitialWait)
	for i := 0; i < attempt; i++ {
		d *= mult
	}
	if limit > 0 && d > float64(limit) {
		d = float64(limit)
	}
	return r.jitter(time.Duration(d))
}

// spread returns d moved by up to 20% either way.
func spread(d time.Duration) time.Duration {
	out := time.Duration(float64(d) * (0.8 + 0.4*rand.Float64()))
	return max(out, 0)
}
