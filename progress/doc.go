// Package progress provides a lightweight tracker that keeps aggregated
// counters (forks created, forks resolved, rounds drained, steps run) for a
// single coordinator instance. Components update the counters atomically via
// the Delta helper without requiring a global registry.
package progress
