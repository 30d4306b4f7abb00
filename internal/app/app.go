// Package app is the supervisor: it owns every console, the consumer end of
// the message bus, and the event router, and drives render, shutdown
// escalation and the termination decision from a single update loop.
package app

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/BppleMan/parallely/internal/console"
	"github.com/BppleMan/parallely/internal/event"
	"github.com/BppleMan/parallely/internal/message"
	"github.com/BppleMan/parallely/internal/shutdown"
	"github.com/BppleMan/parallely/internal/task"
)

// Config is the slice of the CLI surface the supervisor consumes.
type Config struct {
	Commands       []string
	ExitOnComplete bool
}

// Phase is the supervisor's macro state. ShuttingDown is terminal.
type Phase int

const (
	PhaseRunning Phase = iota
	PhaseShuttingDown
)

// TaskResult pairs one task's final status with any lifecycle error.
type TaskResult struct {
	Status task.Status
	Err    error
}

// Result is what the program reports after the loop exits.
type Result struct {
	Reason message.ShutdownReason
	Tasks  []TaskResult
}

// pollInterval paces the status poll that backs exit-on-complete when no
// output is flowing.
const pollInterval = 250 * time.Millisecond

type busMsg struct{ inner message.Message }

type escalationDoneMsg struct {
	reason message.ShutdownReason
	tasks  []TaskResult
}

type tickMsg time.Time

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
)

// Model is the supervisor loop state.
type Model struct {
	cfg      Config
	log      *zap.Logger
	bus      *message.Bus
	sender   message.Sender
	handler  *shutdown.Handler
	router   *event.Router
	consoles []*console.Console

	phase  Phase
	width  int
	height int
	result *Result
}

// New builds the supervisor over one executor per configured command.
func New(cfg Config, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	bus, sender := message.NewBus()
	consoles := make([]*console.Console, 0, len(cfg.Commands))
	for _, command := range cfg.Commands {
		consoles = append(consoles, console.New(task.NewExecutor(command, sender, log), log))
	}
	return newModel(cfg, log, bus, sender, consoles)
}

func newModel(cfg Config, log *zap.Logger, bus *message.Bus, sender message.Sender, consoles []*console.Console) Model {
	handler := shutdown.NewHandler(sender, log)
	chain := make([]event.Handler, 0, len(consoles)+1)
	chain = append(chain, handler)
	for _, c := range consoles {
		chain = append(chain, c)
	}
	return Model{
		cfg:      cfg,
		log:      log,
		bus:      bus,
		sender:   sender,
		handler:  handler,
		router:   event.NewRouter(chain...),
		consoles: consoles,
	}
}

// Init starts the signal listener, spawns every task, and arms the bus
// receive and the status-poll tick.
func (m Model) Init() tea.Cmd {
	m.handler.Listen()
	for _, c := range m.consoles {
		if err := c.Execute(); err != nil {
			// Fatal to this one task only; its pane shows no output.
			m.sender.SendError(err)
		}
	}
	return tea.Batch(waitMessage(m.bus), tickEvery(pollInterval))
}

// waitMessage suspends on the bus and feeds the next control message into
// the update loop. Re-armed after every receive.
func waitMessage(bus *message.Bus) tea.Cmd {
	return func() tea.Msg {
		inner, ok := bus.Receive()
		if !ok {
			return nil
		}
		return busMsg{inner: inner}
	}
}

func tickEvery(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = pollInterval
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		// Resize carries no target region; broadcast to every pane.
		m.route(msg)
		return m, nil
	case tea.KeyMsg, tea.MouseMsg, tea.FocusMsg, tea.BlurMsg:
		if m.phase == PhaseRunning {
			m.route(msg)
		}
		return m, nil
	case tickMsg:
		if m.phase != PhaseRunning {
			return m, nil
		}
		m.drainConsoles()
		if cmd := m.checkComplete(); cmd != nil {
			return m, cmd
		}
		return m, tickEvery(pollInterval)
	case busMsg:
		return m.updateFromBus(msg.inner)
	case escalationDoneMsg:
		m.result = &Result{Reason: msg.reason, Tasks: msg.tasks}
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateFromBus(inner message.Message) (tea.Model, tea.Cmd) {
	switch inner := inner.(type) {
	case message.Error:
		m.log.Error("task error", zap.Error(inner.Err))
	case message.Shutdown:
		if m.phase == PhaseShuttingDown {
			// Escalation already underway; a second request is inert.
			m.log.Debug("duplicate shutdown ignored", zap.Stringer("reason", inner.Reason))
			return m, waitMessage(m.bus)
		}
		m.phase = PhaseShuttingDown
		m.log.Debug("shutdown requested", zap.Stringer("reason", inner.Reason))
		return m, tea.Batch(m.escalate(inner.Reason), waitMessage(m.bus))
	case message.InputBatch:
		if m.phase == PhaseRunning {
			events := make([]event.Event, 0, len(inner.Events))
			for _, raw := range inner.Events {
				events = append(events, event.Event{Msg: raw})
			}
			m.router.Dispatch(events)
		}
	case message.Redraw:
		if m.phase == PhaseRunning {
			m.drainConsoles()
			if cmd := m.checkComplete(); cmd != nil {
				return m, cmd
			}
		}
	}
	return m, waitMessage(m.bus)
}

// escalate runs interrupt-and-wait over every console in parallel. A
// delivery failure on one task falls back to kill for that task only. There
// is no grace-period timeout: a child that ignores the graceful signal
// blocks program termination.
func (m Model) escalate(reason message.ShutdownReason) tea.Cmd {
	consoles := m.consoles
	sig := shutdown.SignalFor(reason)
	log := m.log
	return func() tea.Msg {
		results := make([]TaskResult, len(consoles))
		var wg sync.WaitGroup
		for i, c := range consoles {
			wg.Add(1)
			go func(i int, c *console.Console) {
				defer wg.Done()
				status, err := c.SignalOrWait(sig)
				results[i] = TaskResult{Status: status, Err: err}
			}(i, c)
		}
		wg.Wait()
		log.Debug("escalation complete", zap.Stringer("reason", reason))
		return escalationDoneMsg{reason: reason, tasks: results}
	}
}

// checkComplete reports the exit transition once no task remains Executing,
// when exit-on-complete is configured.
func (m *Model) checkComplete() tea.Cmd {
	if !m.cfg.ExitOnComplete {
		return nil
	}
	results := make([]TaskResult, len(m.consoles))
	for i, c := range m.consoles {
		status, err := c.TryWait()
		results[i] = TaskResult{Status: status, Err: err}
		if err == nil && status.Kind == task.StatusExecuting {
			return nil
		}
	}
	m.phase = PhaseShuttingDown
	m.result = &Result{Reason: message.ReasonEnd, Tasks: results}
	return tea.Quit
}

func (m *Model) route(raw tea.Msg) {
	m.router.DispatchOne(event.Event{Msg: raw})
}

func (m *Model) drainConsoles() {
	for _, c := range m.consoles {
		c.Drain()
	}
}

// layout splits the width evenly across panes below a one-row header.
func (m *Model) layout() {
	if m.width <= 0 || m.height <= 1 || len(m.consoles) == 0 {
		return
	}
	paneHeight := m.height - 1
	paneWidth := m.width / len(m.consoles)
	if paneWidth < 4 {
		paneWidth = 4
	}
	x := 0
	for i, c := range m.consoles {
		width := paneWidth
		if i == len(m.consoles)-1 {
			width = m.width - x
		}
		c.SetRect(console.Rect{X: x, Y: 1, Width: width, Height: paneHeight})
		x += width
	}
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	title := headerStyle.Render(fmt.Sprintf(" Parallely - (%d)", os.Getpid()))
	hint := hintStyle.Render(" Quit <Q> ")
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(hint)
	if gap < 0 {
		gap = 0
	}
	header := title + strings.Repeat(" ", gap) + hint
	panes := make([]string, 0, len(m.consoles))
	for _, c := range m.consoles {
		panes = append(panes, c.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.JoinHorizontal(lipgloss.Top, panes...))
}

// Result is non-nil once the loop has decided to exit.
func (m Model) Result() *Result {
	return m.result
}

// CurrentPhase exposes the supervisor's macro phase.
func (m Model) CurrentPhase() Phase {
	return m.phase
}
