package eventrouter

import (
	"encoding/json"
	"log/slog"
)

// ConnectionInfoKind is the sub-taxonomy carried by ConnectionInfo events.
type ConnectionInfoKind string

const (
	Connected              ConnectionInfoKind = "Connected"
	UuidGot                ConnectionInfoKind = "UuidGot"
	UnsupportedResolution  ConnectionInfoKind = "UnsupportedResolution"
	ResolutionError        ConnectionInfoKind = "ResolutionError"
	ResolutionGot          ConnectionInfoKind = "ResolutionGot"
	Reconnecting           ConnectionInfoKind = "Reconnecting"
	Reconnected            ConnectionInfoKind = "Reconnected"
	Disconnect             ConnectionInfoKind = "Disconnect"
	ScreencapFailed        ConnectionInfoKind = "ScreencapFailed"
	TouchModeNotAvailable  ConnectionInfoKind = "TouchModeNotAvailable"
	ConnectionInfoOthers   ConnectionInfoKind = "Others"
)

// ConnectionInfoPayload is the shape of a ConnectionInfo event's payload.
type ConnectionInfoPayload struct {
	What    string          `json:"what"`
	Why     string          `json:"why,omitempty"`
	UUID    string          `json:"uuid,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

func (k ConnectionInfoKind) level() slog.Level {
	switch k {
	case UnsupportedResolution, ResolutionError, ScreencapFailed, TouchModeNotAvailable:
		return slog.LevelError
	case Reconnecting:
		return slog.LevelWarn
	case Connected, Reconnected, Disconnect:
		return slog.LevelInfo
	default: // ResolutionGot, UuidGot, Others and anything unrecognized
		return slog.LevelDebug
	}
}

// baseLevel returns the fixed severity table entry for codes whose
// severity does not depend on payload contents.
func (c Code) baseLevel() slog.Level {
	switch c {
	case Unknown, InitFailed, InternalError, TaskChainError, SubTaskError:
		return slog.LevelError
	case Destroyed:
		return slog.LevelWarn
	case TaskChainStart, TaskChainCompleted, TaskChainStopped,
		SubTaskStart, SubTaskCompleted, SubTaskStopped,
		TaskChainExtraInfo, SubTaskExtraInfo, AllTasksCompleted:
		return slog.LevelInfo
	case AsyncCallInfo, ConnectionInfo:
		return slog.LevelDebug
	default:
		return slog.LevelError
	}
}

// Severity classifies (code, payload) per the fixed severity table. For
// ConnectionInfo the payload's "what" field is consulted against the
// connection-info sub-table; malformed payloads fall back to Others.
func Severity(code Code, payload string) slog.Level {
	if code != ConnectionInfo {
		return code.baseLevel()
	}

	var info ConnectionInfoPayload
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		return ConnectionInfoOthers.level()
	}
	return ConnectionInfoKind(info.What).level()
}
