package emitter

import (
	"sync"

	"github.com/otoyo0122/mojo/internal/idgen"
)

// Handler processes a single emitted event.
type Handler func(args ...any)

// Subscription identifies one registered handler; pass it to Unsubscribe to
// remove the handler before it fires.
type Subscription struct {
	id   string
	name string
	once bool
	fn   Handler
}

// ID returns the subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Event returns the event name the subscription is attached to.
func (s *Subscription) Event() string { return s.name }

// Emitter dispatches named events to subscribed handlers.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[string][]*Subscription
}

// New creates an empty emitter.
func New() *Emitter {
	return &Emitter{handlers: make(map[string][]*Subscription)}
}

// On registers a handler invoked on every emission of the named event.
func (e *Emitter) On(name string, fn Handler) *Subscription {
	return e.subscribe(name, fn, false)
}

// Once registers a handler invoked on the next emission only.
func (e *Emitter) Once(name string, fn Handler) *Subscription {
	return e.subscribe(name, fn, true)
}

func (e *Emitter) subscribe(name string, fn Handler, once bool) *Subscription {
	if fn == nil {
		return nil
	}
	sub := &Subscription{id: idgen.New(), name: name, once: once, fn: fn}
	e.mu.Lock()
	e.handlers[name] = append(e.handlers[name], sub)
	e.mu.Unlock()
	return sub
}

// Unsubscribe removes a previously registered handler. It reports whether
// the subscription was still active.
func (e *Emitter) Unsubscribe(sub *Subscription) bool {
	if sub == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	subs := e.handlers[sub.name]
	for i, candidate := range subs {
		if candidate.id == sub.id {
			e.handlers[sub.name] = append(subs[:i:i], subs[i+1:]...)
			return true
		}
	}
	return false
}

// Emit invokes every handler registered for name with the supplied
// arguments. It reports whether at least one handler ran.
func (e *Emitter) Emit(name string, args ...any) bool {
	e.mu.Lock()
	subs := e.handlers[name]
	if len(subs) == 0 {
		e.mu.Unlock()
		return false
	}
	snapshot := make([]*Subscription, len(subs))
	copy(snapshot, subs)
	remaining := subs[:0:0]
	for _, sub := range subs {
		if !sub.once {
			remaining = append(remaining, sub)
		}
	}
	e.handlers[name] = remaining
	e.mu.Unlock()

	for _, sub := range snapshot {
		sub.fn(args...)
	}
	return true
}

// HasListeners reports whether any handler is registered for name.
func (e *Emitter) HasListeners(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[name]) > 0
}
