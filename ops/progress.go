package ops

import (
	"context"
	"sync/atomic"
)

// Update is a progress notification for one operation.
type Update struct {
	// OperationID identifies the operation this update belongs to.
	OperationID string

	// Current is the amount of work done so far.
	Current int64

	// Total is the expected total amount of work. Zero means unknown.
	Total int64

	// Message is an optional human-readable status.
	Message string
}

// Sink receives progress updates, typically forwarding them to a client
// over some transport.
type Sink interface {
	Send(ctx context.Context, update Update) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, update Update) error

func (f SinkFunc) Send(ctx context.Context, update Update) error {
	return f(ctx, update)
}

// Reporter tags progress updates with an operation id and forwards them to
// a sink. Delivery is best-effort: a sink failure (a closed transport, a
// gone client) must never affect the operation's outcome, so errors are
// swallowed here and only counted.
type Reporter struct {
	id      string
	sink    Sink
	dropped atomic.Int64
}

// NewReporter creates a reporter for the given operation id.
// A nil sink yields a reporter that discards all updates.
func NewReporter(id string, sink Sink) *Reporter {
	return &Reporter{id: id, sink: sink}
}

// Report forwards a progress update to the sink.
func (r *Reporter) Report(ctx context.Context, current, total int64, message string) {
	if r.sink == nil {
		return
	}

	err := r.sink.Send(ctx, Update{
		OperationID: r.id,
		Current:     current,
		Total:       total,
		Message:     message,
	})
	if err != nil {
		r.dropped.Add(1)
	}
}

// Dropped returns how many updates failed to deliver.
func (r *Reporter) Dropped() int64 {
	return r.dropped.Load()
}
