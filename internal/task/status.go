package task

import "fmt"

// StatusKind is the task lifecycle state machine. Ready and Executing are
// transient; Exited and Killed are terminal and never transition again.
type StatusKind int

const (
	// StatusReady means the executor was constructed but never spawned.
	StatusReady StatusKind = iota
	// StatusExecuting means the child process is running.
	StatusExecuting
	// StatusExited means the OS reported natural process termination.
	StatusExited
	// StatusKilled means the interrupt-then-kill escalation forced
	// termination.
	StatusKilled
)

func (k StatusKind) String() string {
	switch k {
	case StatusReady:
		return "Ready"
	case StatusExecuting:
		return "Executing"
	case StatusExited:
		return "Exited"
	case StatusKilled:
		return "Killed"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

// Terminal reports whether no further transition can leave this state.
func (k StatusKind) Terminal() bool {
	return k == StatusExited || k == StatusKilled
}

// Status is a snapshot of one task's lifecycle state.
type Status struct {
	Kind    StatusKind
	Command string
	PID     int
	// ExitStatus holds the OS exit description ("exit status 0",
	// "signal: interrupt", ...) once Kind is StatusExited.
	ExitStatus string
	ExitCode   int
}

func (s Status) String() string {
	switch s.Kind {
	case StatusReady:
		return fmt.Sprintf("Ready: %s", s.Command)
	case StatusExited:
		return fmt.Sprintf("Exited: %s (PID: %d) with status: %s", s.Command, s.PID, s.ExitStatus)
	default:
		return fmt.Sprintf("%s: %s (PID: %d)", s.Kind, s.Command, s.PID)
	}
}
