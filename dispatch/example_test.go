package dispatch_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/toolflow/cache"
	"github.com/jonwraymond/toolflow/dispatch"
	"github.com/jonwraymond/toolflow/ops"
	"github.com/jonwraymond/toolflow/resilience"
)

func Example() {
	rl, _ := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		MaxTokens:  10,
		RefillRate: 2,
	})
	retry, _ := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Second,
	})
	executor := resilience.NewExecutor(
		resilience.WithRetry(retry),
		resilience.WithRateLimiter(rl),
		resilience.WithTimeout(2*time.Minute),
	)

	store, _ := cache.New[string, []byte](cache.Config{MaxSize: 256})
	registry := ops.NewRegistry(ops.RegistryConfig{MaxInFlight: 8})

	d := dispatch.New(registry, executor,
		dispatch.WithCache(cache.NewMiddleware(store, nil, cache.DefaultPolicy())),
	)

	sink := ops.SinkFunc(func(ctx context.Context, u ops.Update) error {
		fmt.Printf("%s: %d/%d %s\n", u.OperationID, u.Current, u.Total, u.Message)
		return nil
	})

	result, err := d.Do(context.Background(), dispatch.Request{
		OperationID: "img-42",
		Tool:        "generate_image",
		Input:       map[string]any{"prompt": "a lighthouse at dusk"},
		Sink:        sink,
	}, func(ctx context.Context, reporter *ops.Reporter) ([]byte, error) {
		reporter.Report(ctx, 1, 2, "rendering")
		reporter.Report(ctx, 2, 2, "done")
		return []byte("png-bytes"), nil
	})

	fmt.Println(len(result), err)
	// Output:
	// img-42: 1/2 rendering
	// img-42: 2/2 done
	// 9 <nil>
}
