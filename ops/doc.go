// Package ops gives every in-flight tool invocation an addressable
// identity for cancellation and progress reporting.
//
// A Registry maps caller-supplied operation ids to cancellation contexts
// with guaranteed cleanup, and a Reporter forwards progress updates tagged
// with the operation id to a pluggable sink, swallowing delivery failures.
package ops
