package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records telemetry for the dispatch pipeline.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: recording must never panic or block the caller.
type Metrics struct {
	dispatchTotal    metric.Int64Counter
	dispatchErrors   metric.Int64Counter
	dispatchDuration metric.Float64Histogram
	limiterWaits     metric.Int64Counter
	limiterRejects   metric.Int64Counter
	retryAttempts    metric.Int64Counter
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
	activeOps        metric.Int64UpDownCounter
}

// NewMetrics creates Metrics on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.dispatchTotal, err = meter.Int64Counter(
		"dispatch.total",
		metric.WithDescription("Total number of dispatched tool calls"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	if m.dispatchErrors, err = meter.Int64Counter(
		"dispatch.errors",
		metric.WithDescription("Total number of failed tool calls"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.dispatchDuration, err = meter.Float64Histogram(
		"dispatch.duration_ms",
		metric.WithDescription("Tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.limiterWaits, err = meter.Int64Counter(
		"ratelimit.waits",
		metric.WithDescription("Token waits that blocked"),
		metric.WithUnit("{wait}"),
	); err != nil {
		return nil, err
	}

	if m.limiterRejects, err = meter.Int64Counter(
		"ratelimit.rejections",
		metric.WithDescription("Non-blocking acquisitions rejected"),
		metric.WithUnit("{rejection}"),
	); err != nil {
		return nil, err
	}

	if m.retryAttempts, err = meter.Int64Counter(
		"retry.attempts",
		metric.WithDescription("Retry attempts after a failure"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, err
	}

	if m.cacheHits, err = meter.Int64Counter(
		"cache.hits",
		metric.WithDescription("Requests served from the result cache"),
		metric.WithUnit("{hit}"),
	); err != nil {
		return nil, err
	}

	if m.cacheMisses, err = meter.Int64Counter(
		"cache.misses",
		metric.WithDescription("Requests that missed the result cache"),
		metric.WithUnit("{miss}"),
	); err != nil {
		return nil, err
	}

	if m.activeOps, err = meter.Int64UpDownCounter(
		"ops.active",
		metric.WithDescription("Operations currently in flight"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// NewNopMetrics creates Metrics that record nothing.
func NewNopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("toolflow"))
	return m
}

// RecordDispatch records one completed tool call.
func (m *Metrics) RecordDispatch(ctx context.Context, tool string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("tool", tool))

	m.dispatchTotal.Add(ctx, 1, attrs)
	if err != nil {
		m.dispatchErrors.Add(ctx, 1, attrs)
	}
	m.dispatchDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordLimiterWait records a token wait that had to block.
func (m *Metrics) RecordLimiterWait(ctx context.Context) {
	m.limiterWaits.Add(ctx, 1)
}

// RecordLimiterRejection records a rejected non-blocking acquisition.
func (m *Metrics) RecordLimiterRejection(ctx context.Context) {
	m.limiterRejects.Add(ctx, 1)
}

// RecordRetry records one retry attempt for a tool.
func (m *Metrics) RecordRetry(ctx context.Context, tool string) {
	m.retryAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", tool)))
}

// RecordCacheHit records a request served from cache.
func (m *Metrics) RecordCacheHit(ctx context.Context, tool string) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", tool)))
}

// RecordCacheMiss records a request that missed the cache.
func (m *Metrics) RecordCacheMiss(ctx context.Context, tool string) {
	m.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", tool)))
}

// AddActiveOps adjusts the in-flight operation gauge.
func (m *Metrics) AddActiveOps(ctx context.Context, delta int64) {
	m.activeOps.Add(ctx, delta)
}
