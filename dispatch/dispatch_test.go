package dispatch

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/toolflow/cache"
	"github.com/jonwraymond/toolflow/ops"
	"github.com/jonwraymond/toolflow/resilience"
)

func newTestDispatcher(t *testing.T, execOpts []resilience.ExecutorOption, opts ...Option) (*Dispatcher, *ops.Registry) {
	t.Helper()
	registry := ops.NewRegistry(ops.RegistryConfig{})
	return New(registry, resilience.NewExecutor(execOpts...), opts...), registry
}

func TestDispatcher_Success(t *testing.T) {
	d, registry := newTestDispatcher(t, nil)

	result, err := d.Do(context.Background(), Request{
		OperationID: "op-1",
		Tool:        "generate_image",
		Input:       map[string]any{"prompt": "a cat"},
	}, func(ctx context.Context, reporter *ops.Reporter) ([]byte, error) {
		return []byte("image-bytes"), nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !bytes.Equal(result, []byte("image-bytes")) {
		t.Errorf("Do() = %q, want %q", result, "image-bytes")
	}
	// The operation was completed on exit.
	if got := registry.Len(); got != 0 {
		t.Errorf("registry.Len() = %d, want 0", got)
	}
}

func TestDispatcher_CompletesOnError(t *testing.T) {
	d, registry := newTestDispatcher(t, nil)

	testErr := errors.New("backend failure")
	_, err := d.Do(context.Background(), Request{OperationID: "op-1", Tool: "t"},
		func(ctx context.Context, reporter *ops.Reporter) ([]byte, error) {
			return nil, testErr
		})

	if !errors.Is(err, testErr) {
		t.Fatalf("Do() error = %v, want %v", err, testErr)
	}
	if got := registry.Len(); got != 0 {
		t.Errorf("registry.Len() after error = %d, want 0", got)
	}
}

func TestDispatcher_GeneratesOperationID(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)

	var seen string
	_, err := d.Do(context.Background(), Request{Tool: "t"},
		func(ctx context.Context, reporter *ops.Reporter) ([]byte, error) {
			seen = "invoked"
			return nil, nil
		})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if seen != "invoked" {
		t.Error("operation was not invoked")
	}
}

func TestDispatcher_Cancel(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)

	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := d.Do(context.Background(), Request{OperationID: "op-1", Tool: "t"},
			func(ctx context.Context, reporter *ops.Reporter) ([]byte, error) {
				close(started)
				<-ctx.Done()
				return nil, ctx.Err()
			})
		done <- err
	}()

	<-started
	if !d.Cancel("op-1") {
		t.Fatal("Cancel() = false, want true")
	}

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Do() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do() did not unblock after Cancel()")
	}
}

func TestDispatcher_Progress(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)

	var updates []ops.Update
	sink := ops.SinkFunc(func(ctx context.Context, update ops.Update) error {
		updates = append(updates, update)
		return nil
	})

	_, err := d.Do(context.Background(), Request{OperationID: "op-1", Tool: "t", Sink: sink},
		func(ctx context.Context, reporter *ops.Reporter) ([]byte, error) {
			reporter.Report(ctx, 1, 2, "halfway")
			reporter.Report(ctx, 2, 2, "done")
			return []byte("ok"), nil
		})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("sink received %d updates, want 2", len(updates))
	}
	if updates[0].OperationID != "op-1" {
		t.Errorf("OperationID = %q, want op-1", updates[0].OperationID)
	}
}

func TestDispatcher_RetriedCallRunsThroughLimiter(t *testing.T) {
	rl, err := resilience.NewRateLimiter(resilience.RateLimiterConfig{MaxTokens: 1, RefillRate: 100})
	if err != nil {
		t.Fatalf("NewRateLimiter() error = %v", err)
	}
	retry, err := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewRetry() error = %v", err)
	}

	d, _ := newTestDispatcher(t, []resilience.ExecutorOption{
		resilience.WithRetry(retry),
		resilience.WithRateLimiter(rl),
	})

	attempts := 0
	result, err := d.Do(context.Background(), Request{OperationID: "op-1", Tool: "t"},
		func(ctx context.Context, reporter *ops.Reporter) ([]byte, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("transient")
			}
			return []byte("ok"), nil
		})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if !bytes.Equal(result, []byte("ok")) {
		t.Errorf("Do() = %q, want ok", result)
	}
}

func TestDispatcher_CacheDeduplicates(t *testing.T) {
	store, err := cache.New[string, []byte](cache.Config{MaxSize: 10})
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	mw := cache.NewMiddleware(store, nil, cache.DefaultPolicy())

	d, registry := newTestDispatcher(t, nil, WithCache(mw))

	calls := 0
	op := func(ctx context.Context, reporter *ops.Reporter) ([]byte, error) {
		calls++
		return []byte("result"), nil
	}

	input := map[string]any{"prompt": "a cat"}
	for i := 0; i < 3; i++ {
		out, err := d.Do(context.Background(), Request{Tool: "t", Input: input}, op)
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if !bytes.Equal(out, []byte("result")) {
			t.Errorf("Do() = %q, want result", out)
		}
	}

	if calls != 1 {
		t.Errorf("operation calls = %d, want 1 (served from cache)", calls)
	}
	if got := registry.Len(); got != 0 {
		t.Errorf("registry.Len() = %d, want 0", got)
	}
}

func TestDispatcher_MaxInFlight(t *testing.T) {
	registry := ops.NewRegistry(ops.RegistryConfig{MaxInFlight: 1})
	d := New(registry, resilience.NewExecutor())

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = d.Do(context.Background(), Request{OperationID: "op-1", Tool: "t"},
			func(ctx context.Context, reporter *ops.Reporter) ([]byte, error) {
				close(started)
				<-release
				return nil, nil
			})
	}()
	<-started
	defer close(release)

	_, err := d.Do(context.Background(), Request{OperationID: "op-2", Tool: "t"},
		func(ctx context.Context, reporter *ops.Reporter) ([]byte, error) {
			return nil, nil
		})

	if !errors.Is(err, ops.ErrTooManyOperations) {
		t.Errorf("Do() error = %v, want ErrTooManyOperations", err)
	}
}
