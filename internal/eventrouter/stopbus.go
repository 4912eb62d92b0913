package eventrouter

import "sync"

// StopBus is the process-wide broadcast used to tell every active Engine
// Session stop loop to wake up immediately. It is constructed once at
// process start; Signal closes its internal channel and Reset re-arms it
// with a fresh one rather than replacing the StopBus itself, so callers
// hold one long-lived reference.
type StopBus struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewStopBus creates an armed (not yet signaled) stop bus.
func NewStopBus() *StopBus {
	return &StopBus{ch: make(chan struct{})}
}

// Chan returns the current broadcast channel. It closes when Signal is
// called; every consumer observes the close within the same instant,
// satisfying the "single producer, multiple consumer" stop contract.
func (b *StopBus) Chan() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ch
}

// Signal requests a stop. Non-blocking; safe to call from any goroutine,
// any number of times before Reset.
func (b *StopBus) Signal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-b.ch:
		// already signaled, nothing to do until Reset
	default:
		close(b.ch)
	}
}

// Reset re-arms the bus for the next session. Called by the Engine
// Session Manager at the start of each run.
func (b *StopBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-b.ch:
		b.ch = make(chan struct{})
	default:
		// never signaled since last reset; current channel is still fresh
	}
}
