package retry

import (
	"context"
	"fmt"
	"time"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64

	// RetryIf decides whether an error is worth another attempt. A nil
	// predicate retries everything. Errors it rejects abort the loop on
	// the attempt that produced them.
	RetryIf func(error) bool
}

// DefaultConfig returns the retry configuration used by the import
// pipeline: one retry on transient failure.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   2,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Result carries the outcome of a retried call
type Result struct {
	Attempts int
	Err      error
}

// Do executes fn with bounded exponential backoff. It returns the number
// of attempts made alongside the final error so callers can account for
// retries in their own bookkeeping.
func Do(ctx context.Context, cfg Config, fn func() error) Result {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return Result{Attempts: attempt - 1, Err: fmt.Errorf("retry aborted after %d attempts: %w (last error: %v)", attempt-1, ctx.Err(), lastErr)}
			}
			return Result{Attempts: attempt - 1, Err: fmt.Errorf("retry aborted: %w", ctx.Err())}
		default:
		}

		err := fn()
		if err == nil {
			return Result{Attempts: attempt}
		}

		lastErr = err

		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return Result{Attempts: attempt, Err: lastErr}
		}

		if attempt == cfg.MaxAttempts {
			return Result{Attempts: attempt, Err: fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)}
		}

		select {
		case <-ctx.Done():
			return Result{Attempts: attempt, Err: fmt.Errorf("retry aborted after %d attempts: %w (last error: %v)", attempt, ctx.Err(), lastErr)}
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return Result{Attempts: cfg.MaxAttempts, Err: lastErr}
}

// DoWithLog executes fn with retry and invokes logFn before each backoff
func DoWithLog(ctx context.Context, cfg Config, serviceName string, fn func() error, logFn func(attempt int, err error, nextDelay time.Duration)) error {
	wrapped := cfg
	attempt := 0
	wrapped.RetryIf = func(err error) bool {
		attempt++
		retryable := cfg.RetryIf == nil || cfg.RetryIf(err)
		if retryable && logFn != nil && attempt < wrapped.MaxAttempts {
			logFn(attempt, err, minDelay(cfg, attempt))
		}
		return retryable
	}

	res := Do(ctx, wrapped, fn)
	if res.Err != nil {
		return fmt.Errorf("%s: %w", serviceName, res.Err)
	}
	return nil
}

func minDelay(cfg Config, attempt int) time.Duration {
	delay := cfg.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
	}
	if delay > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return delay
}
