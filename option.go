package mojo

import (
	"context"

	"github.com/otoyo0122/mojo/emitter"
	"github.com/otoyo0122/mojo/progress"
	"github.com/otoyo0122/mojo/tracing"
)

// Option customises a Delay.
type Option func(d *Delay)

// WithContext sets the base context used for step tracing spans.
func WithContext(ctx context.Context) Option {
	return func(d *Delay) {
		if ctx != nil {
			d.ctx = ctx
		}
	}
}

// WithErrorPolicy sets the behaviour for chain errors nobody listens to.
func WithErrorPolicy(policy ErrorPolicy) Option {
	return func(d *Delay) { d.policy = policy }
}

// WithEmitter replaces the internal event registry, for callers that want to
// share one registry between several coordinators.
func WithEmitter(events *emitter.Emitter) Option {
	return func(d *Delay) {
		if events != nil {
			d.Emitter = events
		}
	}
}

// WithTracker sets the progress tracker updated on every fork, resolution,
// round and step.
func WithTracker(tracker *progress.Progress) Option {
	return func(d *Delay) { d.tracker = tracker }
}

// WithData seeds the shared key/value bag visible to all steps.
func WithData(key string, value any) Option {
	return func(d *Delay) { d.Data[key] = value }
}

// WithConfig applies a serialisable configuration: the error policy and,
// when enabled, tracing initialisation.
func WithConfig(config *Config) Option {
	return func(d *Delay) {
		if config == nil {
			return
		}
		if policy, err := config.Delay.errorPolicy(); err == nil {
			d.policy = policy
		}
		if config.Tracing.Enabled {
			_ = tracing.Init(config.Tracing.ServiceName, config.Tracing.ServiceVersion, config.Tracing.OutputFile)
		}
	}
}

// beginOptions describe which contiguous sub-range of a resolution's
// arguments a fork retains.
type beginOptions struct {
	offset int
	length int
}

// BeginOption customises a single fork.
type BeginOption func(*beginOptions)

// WithOffset sets the index of the first captured argument. The default of 1
// skips the conventional origin value.
func WithOffset(offset int) BeginOption {
	return func(o *beginOptions) { o.offset = offset }
}

// WithLength truncates the capture to at most length arguments.
func WithLength(length int) BeginOption {
	return func(o *beginOptions) { o.length = length }
}
