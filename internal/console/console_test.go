package console

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/BppleMan/parallely/internal/event"
	"github.com/BppleMan/parallely/internal/message"
	"github.com/BppleMan/parallely/internal/task"
)

type fakeRunner struct {
	command string
	pid     int
	status  task.Status
	lines   *message.Queue[string]
}

func newFakeRunner(command string) *fakeRunner {
	return &fakeRunner{
		command: command,
		pid:     4242,
		status:  task.Status{Kind: task.StatusExecuting, Command: command, PID: 4242},
		lines:   message.NewQueue[string](),
	}
}

func (f *fakeRunner) Command() string               { return f.command }
func (f *fakeRunner) PID() int                      { return f.pid }
func (f *fakeRunner) TryWait() (task.Status, error) { return f.status, nil }
func (f *fakeRunner) Wait() (task.Status, error)    { return f.status, nil }
func (f *fakeRunner) Signal(task.Signal) error      { return nil }
func (f *fakeRunner) Kill() error                   { return nil }
func (f *fakeRunner) Spawn() error                  { return nil }
func (f *fakeRunner) Lines() *message.Queue[string] { return f.lines }

func newTestConsole(t *testing.T, rect Rect, lineCount int) (*Console, *fakeRunner) {
	t.Helper()
	runner := newFakeRunner("echo hi")
	c := New(runner, nil)
	c.SetRect(rect)
	for i := 0; i < lineCount; i++ {
		runner.lines.Push(fmt.Sprintf("line %d", i))
	}
	c.Drain()
	return c, runner
}

func TestDrainAppendsAndFollowsBottom(t *testing.T) {
	rect := Rect{X: 0, Y: 1, Width: 20, Height: 12}
	c, runner := newTestConsole(t, rect, 30)

	if len(c.wrapped) != 30 {
		t.Fatalf("wrapped line count = %d, want 30", len(c.wrapped))
	}
	bottom := c.ScrollOffset()
	if bottom == 0 {
		t.Fatalf("expected the view to follow the bottom of 30 lines")
	}

	runner.lines.Push("one more")
	c.Drain()
	if c.ScrollOffset() <= bottom {
		t.Fatalf("view did not follow new output: offset %d", c.ScrollOffset())
	}
}

func TestDrainWrapsLongLines(t *testing.T) {
	rect := Rect{X: 0, Y: 1, Width: 20, Height: 12}
	c, runner := newTestConsole(t, rect, 0)

	runner.lines.Push(strings.Repeat("word ", 20))
	c.Drain()
	if len(c.wrapped) < 2 {
		t.Fatalf("long line should wrap to multiple rows, got %d", len(c.wrapped))
	}
}

func TestMouseScrollConfinedToOwnRect(t *testing.T) {
	left, _ := newTestConsole(t, Rect{X: 0, Y: 1, Width: 40, Height: 20}, 60)
	right, _ := newTestConsole(t, Rect{X: 40, Y: 1, Width: 40, Height: 20}, 60)
	router := event.NewRouter(left, right)

	leftBefore := left.ScrollOffset()
	rightBefore := right.ScrollOffset()

	// Wheel inside the left pane's rectangle.
	router.DispatchOne(event.Event{Msg: tea.MouseMsg{
		X: 5, Y: 10, Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress,
	}})

	if left.ScrollOffset() != leftBefore-1 {
		t.Fatalf("left pane offset = %d, want %d", left.ScrollOffset(), leftBefore-1)
	}
	if right.ScrollOffset() != rightBefore {
		t.Fatalf("scroll leaked into the right pane")
	}
}

func TestMouseOutsideRectPropagates(t *testing.T) {
	c, _ := newTestConsole(t, Rect{X: 0, Y: 1, Width: 40, Height: 20}, 60)
	decision := c.HandleEvent(event.Event{Msg: tea.MouseMsg{
		X: 75, Y: 10, Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress,
	}})
	if decision != event.Continue {
		t.Fatalf("event outside the pane rect must propagate")
	}
}

func TestBroadcastEventsPassThrough(t *testing.T) {
	c, _ := newTestConsole(t, Rect{X: 0, Y: 1, Width: 40, Height: 20}, 5)
	for _, msg := range []tea.Msg{
		tea.WindowSizeMsg{Width: 120, Height: 40},
		tea.FocusMsg{},
		tea.BlurMsg{},
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}},
	} {
		if got := c.HandleEvent(event.Event{Msg: msg}); got != event.Continue {
			t.Fatalf("%T should pass through, got %v", msg, got)
		}
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 5, Width: 20, Height: 10}
	cases := []struct {
		x, y int
		want bool
	}{
		{10, 5, true},
		{29, 14, true},
		{30, 5, false},
		{9, 5, false},
		{10, 15, false},
		{0, 0, false},
	}
	for _, tc := range cases {
		if got := r.Contains(tc.x, tc.y); got != tc.want {
			t.Fatalf("Contains(%d, %d) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestViewRendersScrollbar(t *testing.T) {
	c, _ := newTestConsole(t, Rect{X: 0, Y: 1, Width: 40, Height: 20}, 60)
	view := c.View()
	for _, sym := range []string{"↑", "↓", "█"} {
		if !strings.Contains(view, sym) {
			t.Fatalf("view missing scrollbar symbol %q:\n%s", sym, view)
		}
	}
}

func TestViewIncludesCommandAndPid(t *testing.T) {
	c, _ := newTestConsole(t, Rect{X: 0, Y: 1, Width: 40, Height: 20}, 3)
	view := c.View()
	if !strings.Contains(view, "[echo hi] - (4242)") {
		t.Fatalf("view missing command/pid title:\n%s", view)
	}
}
