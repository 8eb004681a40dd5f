// Package observe provides structured logging and OpenTelemetry metrics
// and tracing setup for the dispatch pipeline.
//
// The Logger writes one JSON object per entry with level filtering and
// sensitive-field redaction. Metrics wraps an OpenTelemetry meter with the
// pipeline's instruments (dispatch counts and durations, rate-limit waits,
// retry attempts, cache hits). Provider constructors wire the SDK to
// stdout, OTLP, or Prometheus exporters.
package observe
