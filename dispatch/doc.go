// Package dispatch wires the control path for a tool invocation: result
// cache, cancellable operation registry, rate-limited and retried remote
// call, progress reporting, and guaranteed cleanup.
//
// The flow for one call: consult the result cache; register a cancellable
// operation; run the call through the resilience executor, where every
// retry attempt waits for its own rate-limit token; stream progress ticks
// through the reporter; complete the operation on every exit path.
package dispatch
