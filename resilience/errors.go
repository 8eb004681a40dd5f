package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for resilience operations.
var (
	// ErrInvalidConfig is returned when a constructor receives invalid configuration.
	ErrInvalidConfig = errors.New("resilience: invalid configuration")

	// ErrRateLimitExceeded is returned when no token is available and the
	// caller asked not to wait. Matches *RateLimitError via errors.Is.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// RateLimitError reports a rejected acquisition together with the time
// after which a token is expected to be available.
type RateLimitError struct {
	// RetryAfter is how long the caller should wait before retrying.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("resilience: rate limit exceeded, retry after %s", e.RetryAfter)
}

// Is reports that a RateLimitError matches ErrRateLimitExceeded, so callers
// can branch with errors.Is without inspecting the concrete type.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}
