package progress

import (
	"sync"
	"time"
)

// Delta represents an incremental counter change. The fields are signed and
// can therefore be either positive (increment) or negative (decrement).
type Delta struct {
	Forked   int
	Resolved int
	Rounds   int
	Steps    int
	Failed   int
}

// Progress keeps aggregated fork/join counters for one coordinator. It is
// safe for concurrent use.
type Progress struct {
	// Identification - informative only, filled when tracking starts.
	Name      string
	StartedAt time.Time

	// Counters - modified via Update().
	ForkedTotal   int
	ResolvedTotal int
	Rounds        int
	StepsRun      int
	Failures      int

	mu       sync.Mutex
	onChange func(Progress)
}

// New creates a tracker stamped with the supplied name.
func New(name string) *Progress {
	return &Progress{Name: name, StartedAt: time.Now()}
}

// Update applies the supplied delta to the tracker. If an onChange callback
// has been registered it is invoked with a copy of the updated counters
// outside the critical section, so the callback can perform slow operations
// without blocking the caller.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.mu.Lock()
	p.ForkedTotal += d.Forked
	p.ResolvedTotal += d.Resolved
	p.Rounds += d.Rounds
	p.StepsRun += d.Steps
	p.Failures += d.Failed
	snapshot := p.snapshotLocked()
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Progress) snapshotLocked() Progress {
	return Progress{
		Name:          p.Name,
		StartedAt:     p.StartedAt,
		ForkedTotal:   p.ForkedTotal,
		ResolvedTotal: p.ResolvedTotal,
		Rounds:        p.Rounds,
		StepsRun:      p.StepsRun,
		Failures:      p.Failures,
	}
}

// Outstanding reports forks not yet resolved.
func (p *Progress) Outstanding() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ForkedTotal - p.ResolvedTotal
}

// OnChange registers a callback that is invoked after every Update. Passing
// nil disables the callback. Only one callback can be active; subsequent
// calls overwrite the previous value.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}
