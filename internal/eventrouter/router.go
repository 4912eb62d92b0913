package eventrouter

import (
	"context"
	"log/slog"
)

// NarrationSink receives localized narration lines, typically wired to a
// GUI event emitter (the "callback-log" event).
type NarrationSink func(line string)

// Router turns raw (code, payload) callback events into log records and
// narration, per the fixed severity and narration tables. A Router is
// shared by every Engine Session in the process.
type Router struct {
	logger  *slog.Logger
	sink    NarrationSink
	stopBus *StopBus
}

// New builds a Router. sink may be nil to discard narration (e.g. before
// a GUI context is attached).
func New(logger *slog.Logger, sink NarrationSink) *Router {
	return &Router{logger: logger, sink: sink, stopBus: NewStopBus()}
}

// StopBus returns the process-wide stop broadcast this router owns.
func (r *Router) StopBus() *StopBus {
	return r.stopBus
}

// SetSink swaps the narration sink, e.g. once a Wails context becomes
// available after startup.
func (r *Router) SetSink(sink NarrationSink) {
	r.sink = sink
}

// Callback is the function handed to the Engine as its event callback.
// It must never panic across the FFI boundary and must not block: it
// performs one log write and, for narratable codes, one sink call, both
// of which are cheap local operations.
func (r *Router) Callback(rawCode int32, payload string) {
	defer func() {
		if rec := recover(); rec != nil && r.logger != nil {
			r.logger.Error("eventrouter: recovered panic in callback", "panic", rec)
		}
	}()

	code := FromInt32(rawCode)
	level := Severity(code, payload)

	if r.logger != nil {
		r.logger.Log(context.Background(), level, "engine_event", "code", code.String(), "payload", payload)
	}

	line, err := Narrate(code, payload)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("eventrouter: narration failed", "code", code.String(), "error", err)
		}
		return
	}
	if line != "" && r.sink != nil {
		r.sink(line)
	}
}
