package mojo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otoyo0122/mojo/ioloop"
	"github.com/otoyo0122/mojo/progress"
)

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDelay_MergeOrderedByForkCreation(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)

	var got []any
	delay.Steps(
		func(d *Delay, args []any) error {
			first := d.Begin()
			second := d.Begin()
			// second resolves before first; merge order must not change
			loop.Timer(30*time.Millisecond, func() { first("origin", 1) })
			loop.Timer(5*time.Millisecond, func() { second("origin", 2) })
			return nil
		},
		func(d *Delay, args []any) error {
			got = args
			return nil
		},
	)

	out, err := delay.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, got)
	assert.Equal(t, []any{1, 2}, out)
}

func TestDelay_StepsRunStrictlyInOrder(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)

	var trace []string
	delay.Steps(
		func(d *Delay, args []any) error {
			trace = append(trace, "s1")
			a := d.Begin(WithOffset(0))
			b := d.Begin(WithOffset(0))
			loop.Timer(20*time.Millisecond, func() {
				trace = append(trace, "s1.a")
				a("a")
			})
			loop.Timer(10*time.Millisecond, func() {
				trace = append(trace, "s1.b")
				b("b")
			})
			return nil
		},
		func(d *Delay, args []any) error {
			trace = append(trace, "s2")
			assert.Equal(t, []any{"a", "b"}, args)
			done := d.Begin(WithOffset(0))
			loop.Timer(10*time.Millisecond, func() {
				trace = append(trace, "s2.done")
				done("c")
			})
			return nil
		},
		func(d *Delay, args []any) error {
			trace = append(trace, "s3")
			assert.Equal(t, []any{"c"}, args)
			return nil
		},
	)

	out, err := delay.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, []any{"c"}, out)
	assert.Equal(t, []string{"s1", "s1.b", "s1.a", "s2", "s2.done", "s3"}, trace)
}

func TestDelay_PassInjectsValues(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)

	var got []any
	delay.Steps(
		func(d *Delay, args []any) error {
			d.Pass("x", "y")
			return nil
		},
		func(d *Delay, args []any) error {
			got = args
			return nil
		},
	)

	_, err := delay.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, got)
}

func TestDelay_BeginCaptureRanges(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)

	var got []any
	delay.Steps(
		func(d *Delay, args []any) error {
			skipFirst := d.Begin()
			window := d.Begin(WithOffset(0), WithLength(1))
			outOfRange := d.Begin(WithOffset(5))
			skipFirst("origin", 1, 2)
			window("x", "y")
			outOfRange("p")
			return nil
		},
		func(d *Delay, args []any) error {
			got = args
			return nil
		},
	)

	_, err := delay.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, "x"}, got)
}

func TestDelay_SynchronousResolutionInsideStep(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)

	var got []any
	delay.Steps(
		func(d *Delay, args []any) error {
			done := d.Begin(WithOffset(0))
			done("sync")
			return nil
		},
		func(d *Delay, args []any) error {
			got = args
			return nil
		},
	)

	_, err := delay.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, []any{"sync"}, got)
}

func TestDelay_NoForkStepAutoAdvances(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)

	var trace []string
	delay.Steps(
		func(d *Delay, args []any) error {
			trace = append(trace, "s1")
			return nil
		},
		func(d *Delay, args []any) error {
			trace = append(trace, "s2")
			assert.Empty(t, args)
			return nil
		},
	)

	out, err := delay.Wait(testContext(t))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, []string{"s1", "s2"}, trace)
}

func TestDelay_ZeroStepChain(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)
	delay.Steps()

	out, err := delay.Wait(testContext(t))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.True(t, delay.Finished())
}

func TestDelay_ResolverIsOneShot(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)

	var got []any
	delay.Steps(
		func(d *Delay, args []any) error {
			first := d.Begin(WithOffset(0))
			second := d.Begin(WithOffset(0))
			first(1)
			first(99) // no-op; the round must still wait for second
			loop.Timer(10*time.Millisecond, func() { second(2) })
			return nil
		},
		func(d *Delay, args []any) error {
			got = args
			return nil
		},
	)

	_, err := delay.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, got)
}

func TestDelay_ErrorShortCircuitsChain(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)
	boom := errors.New("boom")

	ran := []string{}
	delay.Steps(
		func(d *Delay, args []any) error {
			ran = append(ran, "s1")
			return boom
		},
		func(d *Delay, args []any) error {
			ran = append(ran, "s2")
			return nil
		},
	)

	out, err := delay.Wait(testContext(t))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, out)
	assert.Equal(t, []string{"s1"}, ran)
	assert.ErrorIs(t, delay.Err(), boom)
	assert.True(t, delay.Finished())
}

func TestDelay_LateResolutionAfterFailureIsIgnored(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)
	boom := errors.New("boom")

	var chainErr error
	finished := false
	ran := []string{}
	delay.On(EventError, func(args ...any) { chainErr, _ = args[0].(error) })
	delay.On(EventFinish, func(args ...any) { finished = true })

	delay.Steps(
		func(d *Delay, args []any) error {
			ran = append(ran, "s1")
			done := d.Begin(WithOffset(0))
			loop.Timer(10*time.Millisecond, func() { done("late") })
			return boom
		},
		func(d *Delay, args []any) error {
			ran = append(ran, "s2")
			return nil
		},
	)

	loop.Timer(50*time.Millisecond, loop.Stop)
	require.NoError(t, loop.Start(testContext(t)))

	assert.ErrorIs(t, chainErr, boom)
	assert.False(t, finished)
	assert.Equal(t, []string{"s1"}, ran)
}

func TestDelay_WaitAfterChainAlreadyFinished(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)
	delay.Once(EventFinish, func(args ...any) { loop.Stop() })
	delay.Steps(func(d *Delay, args []any) error {
		d.Pass("done")
		return nil
	})

	require.NoError(t, loop.Start(testContext(t)))
	require.True(t, delay.Finished())

	out, err := delay.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, []any{"done"}, out)
}

func TestDelay_WaitWhileLoopRunning(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)

	var nested error
	delay.Steps(func(d *Delay, args []any) error {
		_, nested = d.Wait(testContext(t))
		return nil
	})

	_, err := delay.Wait(testContext(t))
	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrLoopRunning)
}

func TestDelay_StepPanicBecomesChainError(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)

	delay.Steps(func(d *Delay, args []any) error {
		panic("kaput")
	})

	_, err := delay.Wait(testContext(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaput")
}

func TestDelay_ErrorPolicyStop(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop, WithErrorPolicy(ErrorPolicyStop))
	boom := errors.New("boom")

	delay.Steps(func(d *Delay, args []any) error { return boom })

	// no error listener registered; the loop stops instead of panicking
	require.NoError(t, loop.Start(testContext(t)))
	assert.ErrorIs(t, delay.Err(), boom)
}

func TestDelay_ErrorPolicyPanic(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)

	delay.Steps(func(d *Delay, args []any) error { return errors.New("boom") })

	assert.Panics(t, func() { _ = loop.Start(testContext(t)) })
}

func TestDelay_SharedData(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop, WithData("attempts", 0))

	delay.Steps(
		func(d *Delay, args []any) error {
			d.Data["attempts"] = d.Data["attempts"].(int) + 1
			return nil
		},
		func(d *Delay, args []any) error {
			d.Data["attempts"] = d.Data["attempts"].(int) + 1
			return nil
		},
	)

	_, err := delay.Wait(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, 2, delay.Data["attempts"])
}

func TestDelay_TrackerCounters(t *testing.T) {
	loop := ioloop.New()
	tracker := progress.New("test-chain")
	delay := NewDelay(loop, WithTracker(tracker))

	delay.Steps(
		func(d *Delay, args []any) error {
			d.Pass(1)
			d.Pass(2)
			return nil
		},
		func(d *Delay, args []any) error { return nil },
	)

	_, err := delay.Wait(testContext(t))
	require.NoError(t, err)

	snap := tracker.Snapshot()
	assert.Equal(t, 2, snap.StepsRun)
	assert.Equal(t, snap.ForkedTotal, snap.ResolvedTotal)
	assert.Zero(t, snap.Failures)
	assert.GreaterOrEqual(t, snap.Rounds, 2)
	assert.Zero(t, tracker.Outstanding())
}

func TestDelay_ManyForksOutOfOrder(t *testing.T) {
	loop := ioloop.New()
	delay := NewDelay(loop)

	const n = 16
	var got []any
	delay.Steps(
		func(d *Delay, args []any) error {
			for i := 0; i < n; i++ {
				done := d.Begin(WithOffset(0))
				v := i
				// later forks resolve earlier
				loop.Timer(time.Duration(n-i)*time.Millisecond, func() { done(v) })
			}
			return nil
		},
		func(d *Delay, args []any) error {
			got = args
			return nil
		},
	)

	_, err := delay.Wait(testContext(t))
	require.NoError(t, err)
	require.Len(t, got, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, i, got[i])
	}
}
