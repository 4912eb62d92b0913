// Package audit implements the Command Surface's append-only audit log:
// every invocation of run_daily, stop_core, update_config, get_config,
// set_log_level, update, and update_resource is recorded to a JSONL
// file and, when a GUI context is attached, emitted as a Wails event.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Entry is one Command Surface invocation record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Success   bool      `json:"success"`
	Detail    string    `json:"detail,omitempty"`
}

// Log is an append-only JSONL audit trail. Safe for concurrent use.
type Log struct {
	ctx     context.Context
	logger  *slog.Logger
	logPath string

	mu      sync.Mutex
	logFile *os.File
}

// Open creates or appends to the audit log at <workDir>/debug/audit.log.
func Open(logger *slog.Logger, workDir string) (*Log, error) {
	dir := filepath.Join(workDir, "debug")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "audit.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	return &Log{logger: logger, logPath: path, logFile: f}, nil
}

// SetContext attaches a Wails context so subsequent entries are also
// emitted to the front-end as "audit_log" events.
func (a *Log) SetContext(ctx context.Context) {
	a.ctx = ctx
}

// Record appends one entry, emits it to the GUI if attached, and logs
// a matching structured log record.
func (a *Log) Record(command string, success bool, detail string) {
	entry := Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Command:   command,
		Success:   success,
		Detail:    detail,
	}

	a.mu.Lock()
	if a.logFile != nil {
		if data, err := json.Marshal(entry); err == nil {
			a.logFile.Write(append(data, '\n'))
		}
	}
	a.mu.Unlock()

	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, "audit_log", entry)
	}

	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	a.logger.Log(context.Background(), level, "command_invoked", "command", command, "success", success)
}

// Recent returns up to limit entries, most recent first.
func (a *Log) Recent(limit int) []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	content, err := os.ReadFile(a.logPath)
	if err != nil {
		return nil
	}

	lines := strings.Split(string(content), "\n")
	entries := make([]Entry, 0, limit)
	for i := len(lines) - 1; i >= 0 && len(entries) < limit; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

// Close releases the underlying file handle.
func (a *Log) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.logFile == nil {
		return nil
	}
	return a.logFile.Close()
}
