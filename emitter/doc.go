// Package emitter implements a small named-event notification registry.
// Handlers for an event run synchronously, in registration order, on the
// goroutine that emits. Once-handlers are removed before they run, so a
// handler that re-emits its own event cannot recurse into itself.
package emitter
