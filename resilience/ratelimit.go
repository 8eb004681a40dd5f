package resilience

import (
	"container/list"
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// RateLimiterConfig configures the token bucket.
type RateLimiterConfig struct {
	// MaxTokens is the bucket capacity. Must be > 0.
	MaxTokens int

	// RefillRate is how many tokens are added per second. Must be > 0.
	// Fractional rates are allowed (0.5 = one token every two seconds).
	RefillRate float64
}

// RateLimiter is a token bucket rate limiter with a FIFO wait queue.
//
// Tokens are accounted from a fixed monotonic origin: the available count
// is derived from total elapsed time and total tokens spent, so repeated
// small refills cannot accumulate floating-point drift. Waiters are granted
// tokens strictly in arrival order; a freed token wakes at most one waiter.
type RateLimiter struct {
	config RateLimiterConfig

	mu      sync.Mutex
	origin  time.Time
	spent   float64
	waiters *list.List // of *waiter, front is next in line
	timer   *time.Timer
}

type waiter struct {
	ready chan struct{}
}

// NewRateLimiter creates a new rate limiter.
// Returns an error wrapping ErrInvalidConfig if the configuration is invalid.
func NewRateLimiter(config RateLimiterConfig) (*RateLimiter, error) {
	if config.MaxTokens <= 0 {
		return nil, fmt.Errorf("%w: MaxTokens must be > 0, got %d", ErrInvalidConfig, config.MaxTokens)
	}
	if config.RefillRate <= 0 {
		return nil, fmt.Errorf("%w: RefillRate must be > 0, got %g", ErrInvalidConfig, config.RefillRate)
	}

	return &RateLimiter{
		config:  config,
		origin:  time.Now(),
		spent:   -float64(config.MaxTokens), // start full
		waiters: list.New(),
	}, nil
}

// Allow consumes one token if available. It never blocks.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Queued waiters have priority over new arrivals.
	if rl.waiters.Len() > 0 {
		return false
	}
	if rl.tokensLocked(time.Now()) >= 1 {
		rl.spent++
		return true
	}
	return false
}

// Acquire consumes one token if available, or returns a *RateLimitError
// carrying the duration after which a token is expected.
func (rl *RateLimiter) Acquire() error {
	if rl.Allow() {
		return nil
	}

	rl.mu.Lock()
	retryAfter := rl.timeUntilNextLocked(time.Now())
	rl.mu.Unlock()

	return &RateLimitError{RetryAfter: retryAfter}
}

// Wait blocks until a token is granted or ctx is cancelled.
//
// Waiters are served in FIFO order. A cancelled waiter is unlinked from the
// queue without consuming a token; if it had already been granted a token,
// the token is returned to the bucket.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	// Check cancellation before committing to anything.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	rl.mu.Lock()
	if rl.waiters.Len() == 0 && rl.tokensLocked(time.Now()) >= 1 {
		rl.spent++
		rl.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	elem := rl.waiters.PushBack(w)
	rl.scheduleLocked()
	rl.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	select {
	case <-w.ready:
		// Granted while we were cancelling. Refund the token and pass it on.
		rl.spent--
		rl.serviceLocked()
	default:
		rl.waiters.Remove(elem)
	}
	rl.scheduleLocked()

	return ctx.Err()
}

// Tokens returns the number of whole tokens currently available.
func (rl *RateLimiter) Tokens() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return int(rl.tokensLocked(time.Now()))
}

// TimeUntilNext returns how long until at least one token is available.
// Zero means a token is available now.
func (rl *RateLimiter) TimeUntilNext() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.timeUntilNextLocked(time.Now())
}

// Reset restores the bucket to full capacity and wakes queued waiters.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.spent = now.Sub(rl.origin).Seconds()*rl.config.RefillRate - float64(rl.config.MaxTokens)
	rl.serviceLocked()
	rl.scheduleLocked()
}

// Config returns the rate limiter configuration.
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}

// tokensLocked computes available tokens from the fixed origin.
// Refill beyond capacity is forfeited by advancing spent.
func (rl *RateLimiter) tokensLocked(now time.Time) float64 {
	accrued := now.Sub(rl.origin).Seconds() * rl.config.RefillRate
	tokens := accrued - rl.spent

	if max := float64(rl.config.MaxTokens); tokens > max {
		rl.spent = accrued - max
		tokens = max
	}
	if tokens < 0 {
		tokens = 0
	}
	return tokens
}

func (rl *RateLimiter) timeUntilNextLocked(now time.Time) time.Duration {
	tokens := rl.tokensLocked(now)
	if tokens >= 1 {
		return 0
	}
	needed := 1 - tokens
	ms := math.Ceil(needed / rl.config.RefillRate * 1000)
	return time.Duration(ms) * time.Millisecond
}

// serviceLocked grants tokens to the front of the queue while both a token
// and a waiter are available.
func (rl *RateLimiter) serviceLocked() {
	now := time.Now()
	for rl.waiters.Len() > 0 && rl.tokensLocked(now) >= 1 {
		elem := rl.waiters.Front()
		rl.waiters.Remove(elem)
		rl.spent++
		close(elem.Value.(*waiter).ready)
	}
}

// scheduleLocked arms the refill timer for the head waiter, or releases it
// when the queue is empty.
func (rl *RateLimiter) scheduleLocked() {
	if rl.waiters.Len() == 0 {
		if rl.timer != nil {
			rl.timer.Stop()
			rl.timer = nil
		}
		return
	}

	d := rl.timeUntilNextLocked(time.Now())
	if rl.timer == nil {
		rl.timer = time.AfterFunc(d, rl.service)
	} else {
		rl.timer.Reset(d)
	}
}

func (rl *RateLimiter) service() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.timer = nil
	rl.serviceLocked()
	rl.scheduleLocked()
}
