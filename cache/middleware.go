package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// InvokerFunc is the function signature for the underlying tool invocation.
type InvokerFunc func(ctx context.Context, tool string, input any) ([]byte, error)

// Middleware deduplicates identical tool requests before they reach the
// rate-limited dispatch path.
//
// A repeated request is served from the cache; concurrent identical
// requests for an uncached key share a single invocation via singleflight,
// so an expensive (possibly billed) remote call runs at most once per key
// at a time. Errors are never cached.
type Middleware struct {
	store  *Cache[string, []byte]
	keyer  Keyer
	policy Policy
	group  singleflight.Group
}

// NewMiddleware creates a new caching middleware.
// If keyer is nil, a RequestKeyer is used.
func NewMiddleware(store *Cache[string, []byte], keyer Keyer, policy Policy) *Middleware {
	if keyer == nil {
		keyer = NewRequestKeyer()
	}
	return &Middleware{
		store:  store,
		keyer:  keyer,
		policy: policy,
	}
}

// Execute runs the invocation with caching and duplicate suppression.
func (m *Middleware) Execute(ctx context.Context, tool string, input any, invoker InvokerFunc) ([]byte, error) {
	if !m.policy.ShouldCache() {
		return invoker(ctx, tool, input)
	}

	key, err := m.keyer.Key(tool, input)
	if err != nil {
		// Key generation failed, execute without caching.
		return invoker(ctx, tool, input)
	}

	if cached, ok := m.store.Get(key); ok {
		return cached, nil
	}

	result, err, _ := m.group.Do(key, func() (any, error) {
		// Another caller may have populated the cache while we queued.
		if cached, ok := m.store.Get(key); ok {
			return cached, nil
		}

		out, err := invoker(ctx, tool, input)
		if err != nil {
			return nil, err
		}

		m.store.SetTTL(key, out, m.policy.EffectiveTTL(0))
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
