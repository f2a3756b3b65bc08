// Package pending implements the unbounded FIFO that backs the event loop.
// Entries are scheduled callbacks; unlike a message broker queue there is no
// redelivery, so Ack/Nack semantics are intentionally absent.
package pending

import (
	"context"
	"sync"
	"time"

	"github.com/otoyo0122/mojo/internal/clock"
	"github.com/otoyo0122/mojo/internal/idgen"
)

// Entry represents a single scheduled unit of work.
type Entry[T any] struct {
	id        string
	payload   T
	createdAt time.Time
}

// ID returns the entry identifier.
func (e *Entry[T]) ID() string { return e.id }

// CreatedAt returns the time the entry was scheduled.
func (e *Entry[T]) CreatedAt() time.Time { return e.createdAt }

// T returns the entry payload.
func (e *Entry[T]) T() *T { return &e.payload }

// Queue is an unbounded FIFO safe for concurrent producers and a single
// consumer. Push never blocks, which matters because callbacks re-schedule
// themselves from inside the consumer.
type Queue[T any] struct {
	mu      sync.Mutex
	entries []*Entry[T]
	notify  chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{notify: make(chan struct{}, 1)}
}

// Push appends a new entry to the queue.
func (q *Queue[T]) Push(t *T) *Entry[T] {
	entry := &Entry[T]{
		id:        idgen.New(),
		payload:   *t,
		createdAt: clock.Now(),
	}
	q.mu.Lock()
	q.entries = append(q.entries, entry)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return entry
}

// Consume blocks until an entry is available or ctx is done.
func (q *Queue[T]) Consume(ctx context.Context) (*Entry[T], error) {
	for {
		if entry, ok := q.TryConsume(); ok {
			return entry, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

// TryConsume removes and returns the head entry without blocking.
func (q *Queue[T]) TryConsume() (*Entry[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil, false
	}
	entry := q.entries[0]
	q.entries = q.entries[1:]
	return entry, true
}

// Size returns the current number of queued entries.
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
