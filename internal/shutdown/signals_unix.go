//go:build unix

package shutdown

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/BppleMan/parallely/internal/message"
)

func listenSignals() []os.Signal {
	return []os.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGQUIT}
}

func reasonFor(sig os.Signal) message.ShutdownReason {
	switch sig {
	case unix.SIGTERM:
		return message.ReasonSigterm
	case unix.SIGQUIT:
		return message.ReasonSigquit
	default:
		return message.ReasonSigint
	}
}
