package ops

import (
	"context"
	"errors"
	"sync"
)

// ErrTooManyOperations is returned when the in-flight cap is reached.
var ErrTooManyOperations = errors.New("ops: too many in-flight operations")

// RegistryConfig configures the operation registry.
type RegistryConfig struct {
	// MaxInFlight caps the number of concurrent operations.
	// Default: 0 (unlimited)
	MaxInFlight int
}

// Registry tracks in-flight operations and owns their cancellation
// contexts. Every operation is keyed by a caller-supplied id.
//
// Contract:
// - Begin with a duplicate id is overwrite-safe: the previous operation's
//   context is cancelled and the entry replaced.
// - Complete is idempotent; completing an unknown id is a no-op.
// - Every Begin must be paired with a Complete on every exit path.
type Registry struct {
	config RegistryConfig

	mu  sync.Mutex
	ops map[string]*operation
}

type operation struct {
	cancel context.CancelFunc
}

// NewRegistry creates a new operation registry.
func NewRegistry(config RegistryConfig) *Registry {
	return &Registry{
		config: config,
		ops:    make(map[string]*operation),
	}
}

// Begin registers a new cancellable operation under id and returns its
// context, derived from parent. Cancelling the returned context (via
// Cancel or Complete) propagates to every suspension point below it.
func (r *Registry) Begin(parent context.Context, id string) (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.ops[id]; ok {
		// Caller reused an id; the old operation is dead to us now.
		existing.cancel()
		delete(r.ops, id)
	} else if r.config.MaxInFlight > 0 && len(r.ops) >= r.config.MaxInFlight {
		return nil, ErrTooManyOperations
	}

	ctx, cancel := context.WithCancel(parent)
	r.ops[id] = &operation{cancel: cancel}
	return ctx, nil
}

// Cancel cancels the operation's context, reporting whether id was found.
// The entry stays registered until Complete is called.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.ops[id]
	if !ok {
		return false
	}
	op.cancel()
	return true
}

// Complete removes the operation and releases its context. Idempotent:
// completing twice, or an id never begun, is a no-op.
func (r *Registry) Complete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.ops[id]
	if !ok {
		return
	}
	op.cancel()
	delete(r.ops, id)
}

// Len returns the number of in-flight operations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ops)
}

// IDs returns the ids of all in-flight operations.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.ops))
	for id := range r.ops {
		ids = append(ids, id)
	}
	return ids
}
