package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/toolflow/cache"
	"github.com/jonwraymond/toolflow/observe"
	"github.com/jonwraymond/toolflow/ops"
	"github.com/jonwraymond/toolflow/resilience"
)

const tracerName = "github.com/jonwraymond/toolflow/dispatch"

// Request describes one tool invocation.
type Request struct {
	// OperationID identifies this invocation for cancellation and
	// progress. Generated when empty.
	OperationID string

	// Tool is the tool being invoked, e.g. "generate_image".
	Tool string

	// Input is the tool input, used for request fingerprinting.
	Input any

	// Sink receives progress updates for this invocation. Optional.
	Sink ops.Sink
}

// Operation is the remote call being dispatched. It must honor ctx
// cancellation and may stream progress through the reporter.
type Operation func(ctx context.Context, reporter *ops.Reporter) ([]byte, error)

// Dispatcher runs tool invocations through the full control path: result
// cache, operation registry, rate-limited and retried execution, progress
// reporting, and guaranteed operation cleanup.
type Dispatcher struct {
	registry *ops.Registry
	executor *resilience.Executor
	cached   *cache.Middleware
	logger   observe.Logger
	metrics  *observe.Metrics
	tracer   trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCache adds a result-caching middleware in front of the dispatch path.
func WithCache(m *cache.Middleware) Option {
	return func(d *Dispatcher) {
		d.cached = m
	}
}

// WithLogger sets the structured logger.
func WithLogger(l observe.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *observe.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithTracerProvider sets the tracer provider for dispatch spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Dispatcher) {
		d.tracer = tp.Tracer(tracerName)
	}
}

// New creates a Dispatcher. The registry tracks in-flight operations; the
// executor supplies the resilience chain (rate limiter, retry, circuit
// breaker, timeout) the remote call runs through.
func New(registry *ops.Registry, executor *resilience.Executor, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		executor: executor,
		logger:   observe.NewNopLogger(),
		metrics:  observe.NewNopMetrics(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Do runs one tool invocation end to end.
//
// Exit paths all converge on completing the registered operation: success,
// operation error, rejection by the resilience chain, and cancellation.
func (d *Dispatcher) Do(ctx context.Context, req Request, op Operation) ([]byte, error) {
	if req.OperationID == "" {
		req.OperationID = uuid.NewString()
	}

	ctx, span := d.tracer.Start(ctx, "dispatch."+req.Tool,
		trace.WithAttributes(
			attribute.String("tool", req.Tool),
			attribute.String("operation.id", req.OperationID),
		),
	)
	defer span.End()

	var result []byte
	var err error

	if d.cached != nil {
		invoked := false
		result, err = d.cached.Execute(ctx, req.Tool, req.Input, func(ctx context.Context, _ string, _ any) ([]byte, error) {
			invoked = true
			return d.invoke(ctx, req, op)
		})
		if invoked {
			d.metrics.RecordCacheMiss(ctx, req.Tool)
		} else {
			d.metrics.RecordCacheHit(ctx, req.Tool)
			span.SetAttributes(attribute.Bool("cache.hit", true))
		}
	} else {
		result, err = d.invoke(ctx, req, op)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

// Cancel cancels an in-flight operation by id.
func (d *Dispatcher) Cancel(operationID string) bool {
	return d.registry.Cancel(operationID)
}

// invoke runs the registered, rate-limited, retried call.
func (d *Dispatcher) invoke(ctx context.Context, req Request, op Operation) ([]byte, error) {
	opCtx, err := d.registry.Begin(ctx, req.OperationID)
	if err != nil {
		return nil, err
	}
	defer d.registry.Complete(req.OperationID)

	d.metrics.AddActiveOps(ctx, 1)
	defer d.metrics.AddActiveOps(ctx, -1)

	logger := d.logger.With(
		observe.F("tool", req.Tool),
		observe.F("operation_id", req.OperationID),
	)
	reporter := ops.NewReporter(req.OperationID, req.Sink)

	start := time.Now()
	var result []byte

	err = d.executor.Execute(opCtx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx, reporter)
		return opErr
	})

	duration := time.Since(start)
	d.metrics.RecordDispatch(ctx, req.Tool, duration, err)

	if err != nil {
		logger.Warn(ctx, "dispatch failed",
			observe.F("duration_ms", duration.Milliseconds()),
			observe.F("error", err.Error()),
		)
		return nil, err
	}

	logger.Info(ctx, "dispatch complete",
		observe.F("duration_ms", duration.Milliseconds()),
	)
	return result, nil
}
