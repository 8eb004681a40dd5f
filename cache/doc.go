// Package cache provides a bounded LRU+TTL cache and request deduplication
// for expensive tool invocations.
//
// It provides a generic Cache with least-recently-used eviction and lazy
// TTL expiry, SHA-256-based request fingerprinting, and a read-through
// middleware that suppresses concurrent duplicate requests.
package cache
