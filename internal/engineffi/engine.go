// Package engineffi defines the narrow contract the session manager uses
// to talk to the Engine: a dynamically loaded, C-ABI shared library that
// drives automation tasks and reports back through a callback. The real
// bindings (cgo_unix.go, cgo_windows.go) load the library with
// dlopen/LoadLibrary; other builds get the stub in stub.go, which reports
// ErrUnsupportedPlatform, and tests use the fake in fake.go.
package engineffi

import "context"

// Callback is invoked by the Engine, possibly from a non-Go thread, for
// every event it wants to report. code and payload follow the taxonomy
// described by the eventrouter package; this package only transports them.
type Callback func(code int32, payload string)

// Library is the process-wide handle to the loaded Engine shared object.
type Library interface {
	// Load loads the shared library at path. Must be idempotent-safe to
	// call once per process; callers enforce the once-only discipline.
	Load(path string) error
	// Unload releases the shared library. Safe to call even if never
	// loaded.
	Unload() error
	// LoadResource points the Engine at its resource bundle directory.
	LoadResource(dir string) error
	// NewInstance creates an assistant instance bound to cb.
	NewInstance(ctx context.Context, cb Callback) (Instance, error)
}

// Instance is a single Engine assistant handle, owned exclusively by one
// Engine Session at a time.
type Instance interface {
	// SetConnectionExtras applies vendor-specific connection JSON under tag.
	SetConnectionExtras(tag string, extrasJSON string) error
	// AsyncConnect requests a device connection. Blocks until connected
	// when block is true, mirroring the Engine's own async_connect option.
	AsyncConnect(adbPath, address, extrasTag string, block bool) error
	// AppendTask submits a task entry and returns the Engine-assigned id.
	AppendTask(name string, paramsJSON string) (int64, error)
	// Start begins executing the submitted task queue.
	Start() error
	// Stop requests cooperative termination. Best-effort: callers log
	// failures rather than treat them as fatal.
	Stop() error
	// Running reports whether the Engine still considers itself active.
	Running() bool
	// Destroy releases the instance. Must not be called twice.
	Destroy()
}
