// Package session implements the Engine Session Manager: at-most-once
// library load, one active session per process, the run/request_stop/
// reload algorithm, and the cooperative stop loop.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"maa-se/internal/config"
	"maa-se/internal/engineffi"
	"maa-se/internal/eventrouter"
	"maa-se/internal/taskqueue"
)

// stopPollInterval bounds how quickly the stop loop notices the Engine
// has stopped running on its own, per §4.1's "approximately one second".
const stopPollInterval = time.Second

// Manager owns the process-wide Engine library handle and enforces that
// at most one session runs at a time.
type Manager struct {
	logger *slog.Logger
	lib    engineffi.Library
	router *eventrouter.Router
	libDir string
	resDir string

	loadOnce sync.Once
	loadErr  error

	mu      sync.Mutex
	running bool

	pollInterval time.Duration
}

// NewManager constructs a Manager bound to a library directory and a
// resource directory, using lib as the Engine binding (a real cgo
// binding in production, engineffi.NewFake() in tests).
func NewManager(logger *slog.Logger, lib engineffi.Library, router *eventrouter.Router, libDir, resDir string) *Manager {
	return &Manager{logger: logger, lib: lib, router: router, libDir: libDir, resDir: resDir, pollInterval: stopPollInterval}
}

func (m *Manager) ensureLoaded() error {
	m.loadOnce.Do(func() {
		m.loadErr = m.lib.Load(m.libDir)
	})
	return m.loadErr
}

// Reload unloads and reloads the Engine library. Must not be called
// while a session is active; callers enforce this via the Command
// Surface's forbidden-interleaving rule.
func (m *Manager) Reload() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("session: cannot reload while a session is active")
	}
	m.mu.Unlock()

	if err := m.lib.Unload(); err != nil {
		m.logger.Warn("engine_unload_failed", "error", err)
	}
	m.loadOnce = sync.Once{}
	m.loadErr = nil
	return m.ensureLoaded()
}

// RequestStop signals the stop broadcast channel; non-blocking.
func (m *Manager) RequestStop() {
	m.router.StopBus().Signal()
}

// Run executes one full session: loads the Engine, connects, submits
// tasks in order, starts, and blocks until the stop loop observes
// termination. Returns only after the Engine has stopped; never leaks
// the assistant handle.
func (m *Manager) Run(ctx context.Context, queue taskqueue.Queue, adb config.AdbSettings) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("session: a session is already active")
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	m.router.StopBus().Reset()

	if err := m.ensureLoaded(); err != nil {
		return fmt.Errorf("session: load engine library: %w", err)
	}
	if err := m.lib.LoadResource(m.resDir); err != nil {
		return fmt.Errorf("session: load resource bundle: %w", err)
	}

	instance, err := m.lib.NewInstance(ctx, m.router.Callback)
	if err != nil {
		return fmt.Errorf("session: create engine instance: %w", err)
	}
	defer instance.Destroy()

	extrasTag, extrasJSON := connectionExtras(adb)
	if err := instance.SetConnectionExtras(extrasTag, extrasJSON); err != nil {
		return fmt.Errorf("session: set connection extras: %w", err)
	}

	if err := instance.AsyncConnect(adb.AdbPath, adb.Address, extrasTag, true); err != nil {
		return fmt.Errorf("session: connect device: %w", err)
	}

	for _, entry := range queue.Entries() {
		paramsJSON, err := json.Marshal(entry.Parameters)
		if err != nil {
			return fmt.Errorf("session: marshal params for %s: %w", entry.Name, err)
		}
		taskID, err := instance.AppendTask(entry.Name, string(paramsJSON))
		if err != nil {
			return fmt.Errorf("session: submit task %s: %w", entry.Name, err)
		}
		m.logger.Info("task_submitted", "name", entry.Name, "task_id", taskID)
	}

	if err := instance.Start(); err != nil {
		return fmt.Errorf("session: start engine: %w", err)
	}

	m.stopLoop(instance)

	if err := instance.Stop(); err != nil {
		m.logger.Warn("engine_stop_failed", "error", err)
	}
	return nil
}

// stopLoop waits for either a stop-bus signal or the Engine reporting
// it is no longer running, polling the latter at stopPollInterval.
func (m *Manager) stopLoop(instance engineffi.Instance) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	stop := m.router.StopBus().Chan()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !instance.Running() {
				return
			}
		}
	}
}

// connectionExtras builds the vendor-specific connection extras JSON.
// Only MuMu is currently supported; disabled/absent extras produce "{}".
func connectionExtras(adb config.AdbSettings) (tag string, extrasJSON string) {
	if adb.Extras == nil || adb.Extras.MuMu == nil {
		return "mumu", "{}"
	}
	data, err := json.Marshal(adb.Extras.MuMu)
	if err != nil {
		return "mumu", "{}"
	}
	return "mumu", string(data)
}
