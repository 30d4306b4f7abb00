// Package message defines the control-message union carried between the
// listener goroutines and the supervisor loop, and the unbounded bus that
// serializes them into arrival order for the single consumer.
package message

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// ShutdownReason identifies which trigger asked the supervisor to stop.
type ShutdownReason int

const (
	// ReasonSigint is an interrupt signal delivered to the supervisor itself.
	ReasonSigint ShutdownReason = iota
	// ReasonSigterm is a terminate signal delivered to the supervisor.
	ReasonSigterm
	// ReasonSigquit is a quit signal delivered to the supervisor.
	ReasonSigquit
	// ReasonCtrlC is the interactive ctrl-c chord.
	ReasonCtrlC
	// ReasonQuit is the interactive q key.
	ReasonQuit
	// ReasonEnd is normal completion of every task under exit-on-complete.
	ReasonEnd
)

func (r ShutdownReason) String() string {
	switch r {
	case ReasonSigint:
		return "sigint"
	case ReasonSigterm:
		return "sigterm"
	case ReasonSigquit:
		return "sigquit"
	case ReasonCtrlC:
		return "ctrl-c"
	case ReasonQuit:
		return "quit"
	case ReasonEnd:
		return "end"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Message is the closed set of control messages the supervisor consumes.
type Message interface{ controlMessage() }

// Error reports a recoverable failure from any listener goroutine.
type Error struct{ Err error }

// Shutdown asks the supervisor to run the stop escalation.
type Shutdown struct{ Reason ShutdownReason }

// InputBatch carries raw terminal events destined for the dispatch chain.
type InputBatch struct{ Events []tea.Msg }

// Redraw forces the next render pass to pick up newly arrived output.
type Redraw struct{}

func (Error) controlMessage()      {}
func (Shutdown) controlMessage()   {}
func (InputBatch) controlMessage() {}
func (Redraw) controlMessage()     {}

// Bus is the single logical queue between all producers and the supervisor.
type Bus struct {
	queue *Queue[Message]
}

// NewBus returns the consumer end and a cloneable producer handle.
func NewBus() (*Bus, Sender) {
	b := &Bus{queue: NewQueue[Message]()}
	return b, Sender{bus: b}
}

// Receive blocks until the next message arrives, in publish order across all
// producers. ok is false once the bus is closed and drained.
func (b *Bus) Receive() (Message, bool) {
	return b.queue.Pop()
}

// TryReceive removes the next message without blocking.
func (b *Bus) TryReceive() (Message, bool) {
	return b.queue.TryPop()
}

// Close stops accepting messages. Only the consumer side calls this.
func (b *Bus) Close() {
	b.queue.Close()
}

// Sender is the shared producer handle. Copies all publish to the same bus.
type Sender struct {
	bus *Bus
}

// Send publishes m without blocking. It fails only when the consumer has
// closed the bus.
func (s Sender) Send(m Message) error {
	if s.bus == nil || !s.bus.queue.Push(m) {
		return fmt.Errorf("message bus closed: dropping %T", m)
	}
	return nil
}

// SendError publishes an Error message. A publish failure here is
// process-fatal: a bus that can silently drop messages could also drop a
// Shutdown and leave the program unterminable.
func (s Sender) SendError(err error) {
	if sendErr := s.Send(Error{Err: err}); sendErr != nil {
		panic(sendErr)
	}
}

// SendShutdown publishes a Shutdown message, escalating a publish failure
// through SendError.
func (s Sender) SendShutdown(reason ShutdownReason) {
	if err := s.Send(Shutdown{Reason: reason}); err != nil {
		s.SendError(err)
	}
}

// SendInputBatch publishes a batch of raw terminal events.
func (s Sender) SendInputBatch(events []tea.Msg) {
	if err := s.Send(InputBatch{Events: events}); err != nil {
		s.SendError(err)
	}
}

// NeedRedraw publishes a Redraw message.
func (s Sender) NeedRedraw() {
	if err := s.Send(Redraw{}); err != nil {
		s.SendError(err)
	}
}
