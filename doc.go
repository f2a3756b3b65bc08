// Package mojo provides an event-loop fork/join coordinator for callback
// style asynchronous code.
//
// A Delay lets a caller fan out any number of outstanding asynchronous
// operations and run a follow-up step exactly once, after all of them have
// resolved. Steps chain: each step starts only after the previous step's
// fan-out has fully drained, receives the arguments the previous round
// captured, and the whole chain short-circuits on the first error.
//
// The coordinator is driven by the cooperative reactor in package ioloop and
// notifies completion through the registry in package emitter:
//
//	loop := ioloop.New()
//	delay := mojo.NewDelay(loop)
//	delay.Steps(
//		func(d *mojo.Delay, args []any) error {
//			done := d.Begin()
//			loop.Timer(time.Second, func() { done(nil, "late") })
//			d.Pass("early")
//			return nil
//		},
//		func(d *mojo.Delay, args []any) error {
//			// args is ["early", "late"], ordered by fork creation
//			return nil
//		},
//	)
//	out, err := delay.Wait(ctx)
//
// Everything runs on the loop goroutine, so step bodies can share state via
// Delay.Data without locking.
package mojo
