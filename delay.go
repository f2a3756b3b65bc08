package mojo

import (
	"context"
	"errors"
	"fmt"

	"github.com/otoyo0122/mojo/emitter"
	"github.com/otoyo0122/mojo/ioloop"
	"github.com/otoyo0122/mojo/progress"
	"github.com/otoyo0122/mojo/tracing"
)

// Events emitted by a Delay. Both are terminal and fire at most once.
const (
	// EventError carries the error of the failed step as its only argument.
	EventError = "error"
	// EventFinish carries the final round's merged arguments.
	EventFinish = "finish"
)

// ErrLoopRunning is returned by Wait when the loop is already running.
var ErrLoopRunning = errors.New("mojo: loop already running")

// Step is one link of a chain. It receives the coordinator and the merged
// arguments of the previous round. Returning a non-nil error fails the whole
// chain; no further step runs afterwards.
type Step func(d *Delay, args []any) error

// Resolver resolves one fork. It must be invoked exactly once, on the loop
// goroutine; later invocations are no-ops. The fork's Begin options decide
// which of the supplied arguments are captured for the next round.
type Resolver func(args ...any)

// ErrorPolicy decides what happens when a step fails and nobody subscribed
// to EventError.
type ErrorPolicy int

const (
	// ErrorPolicyPanic treats an unhandled chain error as fatal. This is the
	// default; Wait always subscribes to EventError first, so it never
	// triggers under Wait.
	ErrorPolicyPanic ErrorPolicy = iota
	// ErrorPolicyStop stops the loop instead, leaving the error on the
	// coordinator for later inspection via Err.
	ErrorPolicyStop
)

// Delay coordinates rounds of forked asynchronous operations and the steps
// between them. All methods except Wait must be called on the loop
// goroutine (or before the loop starts); the coordinator deliberately holds
// no locks of its own.
type Delay struct {
	*emitter.Emitter

	loop    *ioloop.Loop
	tracker *progress.Progress
	ctx     context.Context
	policy  ErrorPolicy

	pending   int
	counter   int
	captured  map[int][]any
	remaining []Step
	locked    bool
	failed    bool

	finished   bool
	finishArgs []any
	failure    error

	// Data is a shared bag visible to every step. Steps never run
	// concurrently, so no locking is needed.
	Data map[string]any
}

// NewDelay creates a coordinator bound to the supplied loop.
func NewDelay(loop *ioloop.Loop, opts ...Option) *Delay {
	ret := &Delay{
		Emitter:  emitter.New(),
		loop:     loop,
		ctx:      context.Background(),
		captured: make(map[int][]any),
		Data:     make(map[string]any),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tracker == nil {
		ret.tracker = progress.New("delay")
	}
	return ret
}

// Loop returns the event loop driving this coordinator.
func (d *Delay) Loop() *ioloop.Loop { return d.loop }

// Tracker returns the progress counters for this coordinator.
func (d *Delay) Tracker() *progress.Progress { return d.tracker }

// Finished reports whether a terminal EventFinish or EventError fired.
func (d *Delay) Finished() bool { return d.finished }

// Err returns the chain error once a step has failed.
func (d *Delay) Err() error { return d.failure }

// Begin forks one operation and returns its resolver. By default the first
// argument handed to the resolver is skipped, because the wrapped async
// primitives conventionally pass an origin value first; use WithOffset and
// WithLength to capture a different sub-range.
func (d *Delay) Begin(opts ...BeginOption) Resolver {
	cfg := beginOptions{offset: 1, length: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	d.pending++
	id := d.counter
	d.counter++
	d.tracker.Update(progress.Delta{Forked: 1})

	done := false
	return func(args ...any) {
		if done {
			return
		}
		done = true
		d.step(id, cfg, args)
	}
}

// Pass forks and immediately resolves with the given values, injecting
// constant data into the next step without waiting on any real event.
func (d *Delay) Pass(args ...any) *Delay {
	d.Begin(WithOffset(0))(args...)
	return d
}

// Steps installs the chain and schedules the first round on the next loop
// pass. The bootstrap goes through the same fork/resolve path as every
// later round, so the first step is not special-cased.
func (d *Delay) Steps(steps ...Step) *Delay {
	d.remaining = append([]Step(nil), steps...)
	first := d.Begin()
	d.loop.Next(func() { first() })
	return d
}

// Wait drives the loop until the chain finishes or fails and returns the
// final merged arguments. If the chain already completed before Wait, the
// recorded outcome is returned without touching the loop. Calling Wait while
// the loop is running is a caller error.
func (d *Delay) Wait(ctx context.Context) ([]any, error) {
	if d.loop.IsRunning() {
		return nil, ErrLoopRunning
	}
	if d.finished {
		return d.finishArgs, d.failure
	}

	var (
		args    []any
		failure error
	)
	errSub := d.Once(EventError, func(ev ...any) {
		if len(ev) > 0 {
			failure, _ = ev[0].(error)
		}
		d.loop.Stop()
	})
	finishSub := d.Once(EventFinish, func(ev ...any) {
		args = ev
		d.loop.Stop()
	})
	defer func() {
		d.Unsubscribe(errSub)
		d.Unsubscribe(finishSub)
	}()

	if err := d.loop.Start(ctx); err != nil {
		return nil, err
	}
	if failure != nil {
		return nil, failure
	}
	return args, nil
}

// step records a fork's resolution and, when it drains the round, merges the
// captured arguments and advances the chain.
func (d *Delay) step(id int, cfg beginOptions, args []any) {
	d.captured[id] = capture(args, cfg.offset, cfg.length)
	d.tracker.Update(progress.Delta{Resolved: 1})
	if d.failed {
		return
	}
	d.pending--
	// A nested resolution while locked is already captured; the re-bootstrap
	// scheduled below picks it up on the next pass.
	if d.pending > 0 || d.locked {
		return
	}
	d.locked = true
	defer func() { d.locked = false }()

	merged := d.drain()
	d.tracker.Update(progress.Delta{Rounds: 1})

	var next Step
	if len(d.remaining) > 0 {
		next = d.remaining[0]
		d.remaining = d.remaining[1:]
	}
	if next != nil {
		if err := d.runStep(next, merged); err != nil {
			d.failed = true
			d.remaining = nil
			d.tracker.Update(progress.Delta{Failed: 1})
			d.emitError(err)
			return
		}
	}
	if d.counter == 0 && (next == nil || len(d.remaining) == 0) {
		d.remaining = nil
		d.emitFinish(merged)
		return
	}
	// Either the step's own forks all resolved synchronously or it forked
	// nothing while steps remain: seed the next round on the next tick
	// instead of recursing.
	if d.pending == 0 {
		seed := d.Begin(WithOffset(0))
		d.loop.Next(func() { seed() })
	}
}

// drain concatenates the round's captures ordered by fork id and resets the
// per-round state.
func (d *Delay) drain() []any {
	var merged []any
	for id := 0; id < d.counter; id++ {
		merged = append(merged, d.captured[id]...)
	}
	d.captured = make(map[int][]any)
	d.counter = 0
	return merged
}

func (d *Delay) runStep(step Step, args []any) (err error) {
	_, span := tracing.StartSpan(d.ctx, "delay.step")
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panic: %v", r)
		}
		tracing.EndSpan(span, err)
	}()
	d.tracker.Update(progress.Delta{Steps: 1})
	return step(d, args)
}

func (d *Delay) emitError(err error) {
	d.finished = true
	d.failure = err
	if d.Emit(EventError, err) {
		return
	}
	if d.policy == ErrorPolicyStop {
		d.loop.Stop()
		return
	}
	panic(err)
}

func (d *Delay) emitFinish(args []any) {
	d.finished = true
	d.finishArgs = args
	d.Emit(EventFinish, args...)
}

// capture selects the contiguous sub-range of a resolution's arguments that
// the fork retains. Out-of-range offsets and lengths silently truncate.
func capture(args []any, offset, length int) []any {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(args) {
		return nil
	}
	out := args[offset:]
	if length >= 0 && length < len(out) {
		out = out[:length]
	}
	return append([]any(nil), out...)
}
