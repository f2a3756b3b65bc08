// Package ioloop provides a minimal single-threaded reactor. Callbacks
// scheduled with Next run one at a time, in FIFO order, on the goroutine
// that called Start. Timers and completions originating on other goroutines
// funnel back onto that goroutine, so everything driven by the loop can
// share state without locking.
package ioloop
