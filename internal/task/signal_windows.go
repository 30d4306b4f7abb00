//go:build windows

package task

import (
	"errors"

	"golang.org/x/sys/windows"
)

// sendSignal approximates POSIX signal classes with console-control events:
// interrupt maps to a CTRL_C event on the child's console group, while the
// quit and terminate classes fall back to unconditional process termination.
func sendSignal(pid int, sig Signal) error {
	if pid == 0 {
		return ErrInvalidPid
	}
	if sig == SignalInterrupt {
		if err := windows.GenerateConsoleCtrlEvent(windows.CTRL_C_EVENT, uint32(pid)); err != nil {
			return translateWinErr(err)
		}
		return nil
	}
	handle, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return translateWinErr(err)
	}
	defer windows.CloseHandle(handle)
	if err := windows.TerminateProcess(handle, 1); err != nil {
		return translateWinErr(err)
	}
	return nil
}

func translateWinErr(err error) error {
	switch {
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return ErrNoPermission
	case errors.Is(err, windows.ERROR_INVALID_PARAMETER):
		// OpenProcess reports a vanished pid as an invalid parameter.
		return ErrNoWait
	default:
		return err
	}
}
