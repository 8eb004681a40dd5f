package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation.
	// Default: 30s
	Timeout time.Duration
}

// Timeout bounds an operation with a deadline on its context.
//
// The operation is expected to honor cancellation; Timeout does not abandon
// it in a goroutine, it derives a deadline context and maps a deadline
// expiry to ErrTimeout.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	// Apply defaults
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &Timeout{config: config}
}

// Execute runs the operation with a deadline.
// Returns ErrTimeout only when this wrapper's deadline, not the caller's
// context, ended the operation.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	err := op(tctx)

	if errors.Is(err, context.DeadlineExceeded) && tctx.Err() != nil && ctx.Err() == nil {
		return ErrTimeout
	}
	return err
}
