package ioloop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/otoyo0122/mojo/internal/pending"
)

// ErrAlreadyRunning is returned by Start when the loop is running.
var ErrAlreadyRunning = errors.New("ioloop: already running")

// Loop is a cooperative, single-threaded scheduler. The zero value is not
// usable; create instances with New.
type Loop struct {
	tasks *pending.Queue[func()]

	mu            sync.Mutex
	running       bool
	stopRequested bool
	cancel        context.CancelFunc
}

// New creates a stopped loop with an empty queue.
func New() *Loop {
	return &Loop{tasks: pending.NewQueue[func()]()}
}

// Next schedules fn to run once on the next loop pass. It is safe to call
// from any goroutine and never blocks.
func (l *Loop) Next(fn func()) {
	if fn == nil {
		return
	}
	l.tasks.Push(&fn)
}

// Timer arranges for fn to run on the loop after delay. The returned timer
// can be stopped to cancel delivery before it fires.
func (l *Loop) Timer(delay time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(delay, func() { l.Next(fn) })
}

// Start runs scheduled callbacks until Stop is called or ctx is cancelled.
// It returns nil after Stop and the context error after cancellation.
// Callbacks left in the queue when the loop stops stay queued and run on the
// next Start.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.running = true
	l.stopRequested = false
	l.cancel = cancel
	l.mu.Unlock()

	defer func() {
		cancel()
		l.mu.Lock()
		l.running = false
		l.cancel = nil
		l.mu.Unlock()
	}()

	for {
		entry, err := l.tasks.Consume(runCtx)
		if err != nil {
			l.mu.Lock()
			stopped := l.stopRequested
			l.mu.Unlock()
			if stopped {
				return nil
			}
			return ctx.Err()
		}
		task := *entry.T()
		task()
	}
}

// Stop makes Start return as soon as the current callback finishes. Calling
// Stop on a stopped loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel == nil {
		return
	}
	l.stopRequested = true
	l.cancel()
}

// IsRunning reports whether Start is currently executing callbacks.
func (l *Loop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Pending returns the number of callbacks waiting to run.
func (l *Loop) Pending() int {
	return l.tasks.Size()
}
