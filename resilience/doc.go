// Package resilience provides rate limiting, retry, circuit breaking, and
// timeout control for calls to externally rate-limited services.
//
// The package exists to gate outbound calls to a shared remote API: every
// invocation acquires a token from a token bucket, failed invocations are
// retried with exponential backoff, and a circuit breaker keeps a failing
// backend from being hammered while it recovers.
//
// # Patterns
//
//   - RateLimiter: token bucket with a FIFO wait queue. Waiters are granted
//     tokens in arrival order, and a cancelled wait never consumes a token.
//
//   - Retry: exponential backoff with a retryability predicate. The error
//     surfaced after exhaustion is the last underlying error, never a
//     wrapper, so callers can branch on its kind.
//
//   - CircuitBreaker: consecutive-failure breaker with half-open probing.
//     Rate-limit rejections and cancellations do not count as failures.
//
//   - Timeout: per-attempt deadline via context.
//
// # Usage
//
// Patterns can be used independently or composed:
//
//	rl, err := resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	    MaxTokens:  10,
//	    RefillRate: 1, // tokens per second
//	})
//	if err != nil {
//	    return err
//	}
//
//	retry, err := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  3,
//	    InitialDelay: time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRetry(retry),
//	    resilience.WithRateLimiter(rl),
//	    resilience.WithTimeout(2*time.Minute),
//	)
//
//	err = executor.Execute(ctx, func(ctx context.Context) error {
//	    return callRemoteAPI(ctx)
//	})
//
// The executor applies the rate limiter inside the retry loop, so each
// retry attempt waits for its own token.
package resilience
