package resilience

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	// Default: 3. Negative values are a configuration error.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 1s
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	// Default: 2.0
	Multiplier float64

	// RetryIf determines whether an error should trigger a retry.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// OnRetry is called before each retry sleep with the attempt number
	// that just failed, the error, and the upcoming delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry re-invokes a fallible operation with exponential backoff until
// success, a non-retryable error, attempt exhaustion, or cancellation.
//
// The error returned after exhaustion is always the last error produced by
// the operation, never a wrapper, so callers can branch on its real kind.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
// Returns an error wrapping ErrInvalidConfig if MaxAttempts is negative.
func NewRetry(config RetryConfig) (*Retry, error) {
	if config.MaxAttempts < 0 {
		return nil, fmt.Errorf("%w: MaxAttempts must be >= 1, got %d", ErrInvalidConfig, config.MaxAttempts)
	}

	// Apply defaults
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retry{config: config}, nil
}

// Execute runs the operation with retry logic.
//
// Cancellation is checked before every attempt and observed during every
// backoff sleep; a cancelled sleep releases its timer and returns promptly.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	delay := r.config.InitialDelay

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		// Fail fast before spending an attempt.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		if attempt == r.config.MaxAttempts || !r.config.RetryIf(err) {
			return err
		}

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}

		delay = time.Duration(float64(delay) * r.config.Multiplier)
		if delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}
	}

	// Unreachable: the loop always returns. Kept for the compiler.
	return nil
}

// Config returns the retry configuration after defaults were applied.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// Do runs a value-returning operation with retry logic.
func Do[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := r.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// sleep waits for d or until ctx is cancelled, releasing the timer either way.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
