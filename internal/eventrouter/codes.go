// Package eventrouter demultiplexes the Engine's callback stream into a
// typed code taxonomy, classifies severity, generates localized
// narration, and hosts the process-wide stop broadcast the Engine Session
// Manager listens on.
package eventrouter

import "fmt"

// Code is the closed taxonomy of Engine callback message codes.
type Code int32

const (
	InternalError     Code = 0
	InitFailed        Code = 1
	ConnectionInfo    Code = 2
	AllTasksCompleted Code = 3
	AsyncCallInfo     Code = 4
	Destroyed         Code = 5

	TaskChainError     Code = 10000
	TaskChainStart     Code = 10001
	TaskChainCompleted Code = 10002
	TaskChainExtraInfo Code = 10003
	TaskChainStopped   Code = 10004

	SubTaskError     Code = 20000
	SubTaskStart     Code = 20001
	SubTaskCompleted Code = 20002
	SubTaskExtraInfo Code = 20003
	SubTaskStopped   Code = 20004

	Unknown Code = -1
)

// FromInt32 maps a raw Engine message code onto the closed taxonomy,
// defaulting to Unknown for anything not recognized.
func FromInt32(raw int32) Code {
	switch Code(raw) {
	case InternalError, InitFailed, ConnectionInfo, AllTasksCompleted, AsyncCallInfo, Destroyed,
		TaskChainError, TaskChainStart, TaskChainCompleted, TaskChainExtraInfo, TaskChainStopped,
		SubTaskError, SubTaskStart, SubTaskCompleted, SubTaskExtraInfo, SubTaskStopped:
		return Code(raw)
	default:
		return Unknown
	}
}

func (c Code) String() string {
	switch c {
	case InternalError:
		return "InternalError"
	case InitFailed:
		return "InitFailed"
	case ConnectionInfo:
		return "ConnectionInfo"
	case AllTasksCompleted:
		return "AllTasksCompleted"
	case AsyncCallInfo:
		return "AsyncCallInfo"
	case Destroyed:
		return "Destroyed"
	case TaskChainError:
		return "TaskChainError"
	case TaskChainStart:
		return "TaskChainStart"
	case TaskChainCompleted:
		return "TaskChainCompleted"
	case TaskChainExtraInfo:
		return "TaskChainExtraInfo"
	case TaskChainStopped:
		return "TaskChainStopped"
	case SubTaskError:
		return "SubTaskError"
	case SubTaskStart:
		return "SubTaskStart"
	case SubTaskCompleted:
		return "SubTaskCompleted"
	case SubTaskExtraInfo:
		return "SubTaskExtraInfo"
	case SubTaskStopped:
		return "SubTaskStopped"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(c))
	}
}

// IsFinished reports whether code marks the end of a chain of work.
func (c Code) IsFinished() bool {
	switch c {
	case AllTasksCompleted, TaskChainCompleted, SubTaskCompleted:
		return true
	default:
		return false
	}
}
