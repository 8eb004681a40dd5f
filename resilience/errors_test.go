package resilience

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRateLimitError(t *testing.T) {
	err := &RateLimitError{RetryAfter: 1500 * time.Millisecond}

	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Error("errors.Is(RateLimitError, ErrRateLimitExceeded) = false, want true")
	}

	wrapped := fmt.Errorf("dispatch failed: %w", err)

	var rle *RateLimitError
	if !errors.As(wrapped, &rle) {
		t.Fatal("errors.As(wrapped, *RateLimitError) = false, want true")
	}
	if rle.RetryAfter != 1500*time.Millisecond {
		t.Errorf("RetryAfter = %v, want 1.5s", rle.RetryAfter)
	}
}

func TestSentinelErrors_Distinct(t *testing.T) {
	sentinels := []error{ErrInvalidConfig, ErrRateLimitExceeded, ErrCircuitOpen, ErrTimeout}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v matches %v, want distinct", a, b)
			}
		}
	}
}
