// Package event implements the ordered, stoppable dispatch model for raw
// terminal events: each event walks a fixed chain of handlers and stops at
// the first handler that consumes it.
package event

import tea "github.com/charmbracelet/bubbletea"

// Event is one raw terminal event passing through the dispatch chain.
type Event struct {
	Msg tea.Msg
}

// Decision is a handler's verdict on an event.
type Decision int

const (
	// Continue hands the event to the next handler in the chain.
	Continue Decision = iota
	// Consumed stops the event from reaching later handlers.
	Consumed
)

// Handler is one link in the dispatch chain.
type Handler interface {
	HandleEvent(ev Event) Decision
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ev Event) Decision

func (f HandlerFunc) HandleEvent(ev Event) Decision { return f(ev) }

// Router dispatches events through an ordered chain of handlers. The chain
// order is fixed at construction: the shutdown handler sits in front of the
// consoles so quit chords never reach a pane.
type Router struct {
	chain []Handler
}

func NewRouter(chain ...Handler) *Router {
	return &Router{chain: chain}
}

// Dispatch offers each event to the chain in order, one event at a time,
// short-circuiting as soon as a handler consumes it.
func (r *Router) Dispatch(events []Event) {
	for _, ev := range events {
		for _, h := range r.chain {
			if h.HandleEvent(ev) == Consumed {
				break
			}
		}
	}
}

// DispatchOne routes a single event through the chain.
func (r *Router) DispatchOne(ev Event) {
	r.Dispatch([]Event{ev})
}
