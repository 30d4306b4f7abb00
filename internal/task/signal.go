package task

import (
	"errors"
	"fmt"
)

// Signal is the class of stop signal deliverable to a child process. The
// escalation policy works in these classes so it cannot depend on which
// platform branch performs the delivery.
type Signal int

const (
	// SignalInterrupt asks the child to stop gracefully.
	SignalInterrupt Signal = iota
	// SignalQuit is the quit-class signal.
	SignalQuit
	// SignalTerminate is the terminate-class signal.
	SignalTerminate
)

func (s Signal) String() string {
	switch s {
	case SignalInterrupt:
		return "interrupt"
	case SignalQuit:
		return "quit"
	case SignalTerminate:
		return "terminate"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// Signal-delivery failures. All are non-fatal to the caller: each triggers a
// fallback to the next, more forceful stop action.
var (
	// ErrInvalidPid marks a zero or absent target pid. Such a target is
	// never handed to the OS.
	ErrInvalidPid = errors.New("invalid pid: cannot signal pid 0")
	// ErrNoPermission marks a delivery the OS refused.
	ErrNoPermission = errors.New("no permission to signal the target process")
	// ErrNoWait marks a target that does not exist, covering processes
	// already reaped as zombies.
	ErrNoWait = errors.New("target process does not exist or was already reaped")
)
