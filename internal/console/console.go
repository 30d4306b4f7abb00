// Package console renders one task as a pane: a command/pid title block
// above a scrollable viewport over the task's combined output.
package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"

	"github.com/BppleMan/parallely/internal/event"
	"github.com/BppleMan/parallely/internal/message"
	"github.com/BppleMan/parallely/internal/task"
)

// Runner is what a console needs from its task: the executable contract
// plus spawn and the output stream.
type Runner interface {
	task.Executable
	Spawn() error
	Lines() *message.Queue[string]
}

// Rect is the pane's viewport rectangle in screen cells, used to test
// whether a mouse event geometrically belongs to this pane.
type Rect struct {
	X, Y, Width, Height int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

var (
	titleBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("5"))
	titleTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	outputStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("2"))
)

const (
	titleBlockHeight = 3
	scrollbarWidth   = 1
)

// Console holds an owned runner and forwards only the operations it needs;
// it is the pane-side composition over the task executor.
type Console struct {
	runner Runner
	log    *zap.Logger

	rect    Rect
	vp      viewport.Model
	raw     []string
	wrapped []string
}

func New(runner Runner, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{
		runner: runner,
		log:    log.With(zap.String("command", runner.Command())),
		vp:     viewport.New(0, 0),
	}
}

// Execute spawns the underlying task.
func (c *Console) Execute() error { return c.runner.Spawn() }

// Command returns the pane's originating command text.
func (c *Console) Command() string { return c.runner.Command() }

// PID returns the task's process id, zero before spawn.
func (c *Console) PID() int { return c.runner.PID() }

// TryWait polls the task status without blocking.
func (c *Console) TryWait() (task.Status, error) { return c.runner.TryWait() }

// SignalOrWait runs the stop escalation for this pane's task.
func (c *Console) SignalOrWait(sig task.Signal) (task.Status, error) {
	return task.SignalOrWait(c.runner, sig)
}

// Rect returns the pane's current screen rectangle.
func (c *Console) Rect() Rect { return c.rect }

// ScrollOffset returns the viewport's vertical scroll position.
func (c *Console) ScrollOffset() int { return c.vp.YOffset }

// SetRect places the pane on screen and re-wraps buffered output to the new
// inner width.
func (c *Console) SetRect(rect Rect) {
	c.rect = rect
	innerWidth := rect.Width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}
	innerHeight := rect.Height - titleBlockHeight - 2
	if innerHeight < 1 {
		innerHeight = 1
	}
	viewWidth := innerWidth - scrollbarWidth
	if viewWidth < 1 {
		viewWidth = 1
	}
	atBottom := c.vp.AtBottom()
	c.vp.Width = viewWidth
	c.vp.Height = innerHeight
	c.rewrap()
	if atBottom {
		c.vp.GotoBottom()
	}
}

// Drain pulls every buffered output line from the task into the pane,
// keeping the view pinned to the bottom unless the user scrolled away.
func (c *Console) Drain() {
	moved := false
	for {
		line, ok := c.runner.Lines().TryPop()
		if !ok {
			break
		}
		c.raw = append(c.raw, line)
		c.wrapped = append(c.wrapped, c.wrapLine(line)...)
		moved = true
	}
	if !moved {
		return
	}
	atBottom := c.vp.AtBottom()
	c.vp.SetContent(strings.Join(c.wrapped, "\n"))
	if atBottom {
		c.vp.GotoBottom()
	}
}

func (c *Console) wrapLine(line string) []string {
	width := c.vp.Width
	if width < 1 {
		width = 80
	}
	return strings.Split(wordwrap.String(line, width), "\n")
}

func (c *Console) rewrap() {
	c.wrapped = c.wrapped[:0]
	for _, line := range c.raw {
		c.wrapped = append(c.wrapped, c.wrapLine(line)...)
	}
	c.vp.SetContent(strings.Join(c.wrapped, "\n"))
}

// HandleEvent consumes mouse events inside this pane's rectangle, scrolling
// the viewport on wheel actions. Resize and focus changes are informational
// broadcasts and pass through untouched.
func (c *Console) HandleEvent(ev event.Event) event.Decision {
	mouse, ok := ev.Msg.(tea.MouseMsg)
	if !ok {
		return event.Continue
	}
	if !c.rect.Contains(mouse.X, mouse.Y) {
		return event.Continue
	}
	switch mouse.Button {
	case tea.MouseButtonWheelUp:
		c.vp.LineUp(1)
	case tea.MouseButtonWheelDown:
		c.vp.LineDown(1)
	}
	return event.Consumed
}

// scrollbar renders the pane's right-edge column: arrow caps around a track
// with the thumb placed by the viewport's scroll position.
func (c *Console) scrollbar() string {
	track := c.vp.Height - 2
	if track < 1 {
		return ""
	}
	thumb := int(c.vp.ScrollPercent() * float64(track-1))
	if thumb < 0 {
		thumb = 0
	}
	if thumb >= track {
		thumb = track - 1
	}
	var b strings.Builder
	b.WriteString("↑")
	for i := 0; i < track; i++ {
		b.WriteString("\n")
		if i == thumb {
			b.WriteString("█")
		} else {
			b.WriteString("│")
		}
	}
	b.WriteString("\n↓")
	return b.String()
}

// View renders the pane at its current rectangle.
func (c *Console) View() string {
	innerWidth := c.rect.Width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}
	title := fmt.Sprintf("[%s] - (%d)", c.Command(), c.PID())
	titleBlock := titleBorderStyle.Width(innerWidth).Render(
		titleTextStyle.MaxWidth(innerWidth).Render(title),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, c.vp.View(), c.scrollbar())
	output := outputStyle.Width(innerWidth).Height(c.vp.Height).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, titleBlock, output)
}
