package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/toolflow/resilience"
)

func ExampleRateLimiter() {
	rl, err := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		MaxTokens:  2,
		RefillRate: 1, // one token per second
	})
	if err != nil {
		panic(err)
	}

	fmt.Println(rl.Allow())
	fmt.Println(rl.Allow())
	fmt.Println(rl.Allow())
	// Output:
	// true
	// true
	// false
}

func ExampleRateLimiter_Acquire() {
	rl, _ := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		MaxTokens:  1,
		RefillRate: 2,
	})

	_ = rl.Acquire() // consumes the only token

	err := rl.Acquire()
	var rle *resilience.RateLimitError
	if errors.As(err, &rle) {
		fmt.Println("rejected, retry after", rle.RetryAfter)
	}
	// Output:
	// rejected, retry after 500ms
}

func ExampleRetry() {
	retry, err := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			fmt.Printf("attempt %d failed: %v\n", attempt, err)
		},
	})
	if err != nil {
		panic(err)
	}

	attempts := 0
	err = retry.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("temporarily unavailable")
		}
		return nil
	})

	fmt.Println("err:", err)
	// Output:
	// attempt 1 failed: temporarily unavailable
	// err: <nil>
}

func ExampleExecutor() {
	rl, _ := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		MaxTokens:  10,
		RefillRate: 5,
	})
	retry, _ := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
	})

	executor := resilience.NewExecutor(
		resilience.WithRetry(retry),
		resilience.WithRateLimiter(rl),
		resilience.WithTimeout(time.Minute),
	)

	err := executor.Execute(context.Background(), func(ctx context.Context) error {
		// call the remote API here
		return nil
	})
	fmt.Println("err:", err)
	// Output:
	// err: <nil>
}
