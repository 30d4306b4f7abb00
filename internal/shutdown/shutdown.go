// Package shutdown turns OS termination signals and interactive quit chords
// into Shutdown messages on the bus, and maps each shutdown reason onto the
// child-signal class used during escalation.
package shutdown

import (
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/BppleMan/parallely/internal/event"
	"github.com/BppleMan/parallely/internal/message"
	"github.com/BppleMan/parallely/internal/task"
)

// Handler recognizes both shutdown trigger sources. It sits first in the
// event-dispatch chain so a quit chord never reaches a console.
type Handler struct {
	sender message.Sender
	log    *zap.Logger
}

func NewHandler(sender message.Sender, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{sender: sender, log: log}
}

// Listen starts the long-lived OS-signal listener. Whichever termination
// signal fires first publishes Shutdown exactly once, then the listener
// goroutine ends. The wait itself is never cancelled; it runs until the
// process exits.
func (h *Handler) Listen() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, listenSignals()...)
	go func() {
		sig := <-ch
		reason := reasonFor(sig)
		h.log.Debug("os signal received", zap.String("signal", sig.String()), zap.Stringer("reason", reason))
		h.sender.SendShutdown(reason)
	}()
}

// HandleEvent recognizes quit chords in key-press events: q alone,
// ctrl-c, and ctrl-backslash. A recognized chord publishes Shutdown and
// consumes the event.
func (h *Handler) HandleEvent(ev event.Event) event.Decision {
	key, ok := ev.Msg.(tea.KeyMsg)
	if !ok {
		return event.Continue
	}
	switch key.String() {
	case "q":
		h.sender.SendShutdown(message.ReasonQuit)
	case "ctrl+c":
		h.sender.SendShutdown(message.ReasonCtrlC)
	case "ctrl+\\":
		h.sender.SendShutdown(message.ReasonSigquit)
	default:
		return event.Continue
	}
	h.log.Debug("quit chord", zap.String("key", key.String()))
	return event.Consumed
}

// SignalFor maps a shutdown reason onto the child-signal class delivered
// during escalation. The mapping is deterministic and platform-independent.
func SignalFor(reason message.ShutdownReason) task.Signal {
	switch reason {
	case message.ReasonSigint, message.ReasonCtrlC:
		return task.SignalInterrupt
	case message.ReasonSigquit, message.ReasonQuit:
		return task.SignalQuit
	default:
		return task.SignalTerminate
	}
}
