//go:build unix

package task

import (
	"errors"

	"golang.org/x/sys/unix"
)

func signo(sig Signal) unix.Signal {
	switch sig {
	case SignalQuit:
		return unix.SIGQUIT
	case SignalTerminate:
		return unix.SIGTERM
	default:
		return unix.SIGINT
	}
}

// sendSignal delivers sig to pid, folding errno into the portable
// delivery-failure taxonomy.
func sendSignal(pid int, sig Signal) error {
	if pid == 0 {
		return ErrInvalidPid
	}
	err := unix.Kill(pid, signo(sig))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EPERM):
		return ErrNoPermission
	case errors.Is(err, unix.ESRCH):
		return ErrNoWait
	default:
		return err
	}
}
