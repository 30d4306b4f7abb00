//go:build windows

package shutdown

import (
	"os"

	"github.com/BppleMan/parallely/internal/message"
)

// Only the universal interrupt signal is observable on Windows.
func listenSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

func reasonFor(os.Signal) message.ShutdownReason {
	return message.ReasonSigint
}
