// Package task owns one child process per Executor: spawn, status polling,
// blocking wait, graceful interrupt, hard kill, and line-buffered streaming
// of the child's combined stdout/stderr.
package task

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BppleMan/parallely/internal/message"
)

// Executable is the capability contract over one supervised child process.
// One concrete type implements it; tests substitute fakes.
type Executable interface {
	Command() string
	PID() int
	// TryWait never blocks; it is safe to call every render tick.
	TryWait() (Status, error)
	// Wait suspends the caller until the process terminates.
	Wait() (Status, error)
	// Signal delivers a stop signal of the given class. Delivery failures
	// surface as ErrInvalidPid, ErrNoPermission or ErrNoWait.
	Signal(sig Signal) error
	// Kill forcibly terminates the process.
	Kill() error
}

type exitRecord struct {
	desc string
	code int
	err  error
}

// Executor runs one command as a child process with stdin closed and
// stdout/stderr piped into an unbounded line queue.
type Executor struct {
	id     uuid.UUID
	raw    string
	sender message.Sender
	log    *zap.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	pid      int
	started  bool
	spawnErr error
	exit     exitRecord

	killed   atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	fwdDone  chan struct{}
	done     chan struct{}
	lines    *message.Queue[string]

	// deliver is the platform signal-delivery function. Tests inject
	// failing deliveries through it to exercise the kill fallback.
	deliver func(pid int, sig Signal) error
}

// NewExecutor builds an executor in the Ready state. The command is not
// inspected until Spawn.
func NewExecutor(raw string, sender message.Sender, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.New()
	return &Executor{
		id:      id,
		raw:     raw,
		sender:  sender,
		log:     log.With(zap.String("task", id.String()), zap.String("command", raw)),
		stop:    make(chan struct{}),
		fwdDone: make(chan struct{}),
		done:    make(chan struct{}),
		lines:   message.NewQueue[string](),
		deliver: sendSignal,
	}
}

// Command returns the original command text.
func (e *Executor) Command() string { return e.raw }

// PID returns the observed process id, zero before Spawn.
func (e *Executor) PID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pid
}

// Lines is the receiving end of the child's combined output stream. Stdout
// and stderr lines interleave in OS-delivery order.
func (e *Executor) Lines() *message.Queue[string] { return e.lines }

// Spawn starts the child process and the background forwarding of its
// output. It fails when the command is empty, the program cannot be found,
// or the OS refuses to create the process. The failure is retained: TryWait
// and Wait keep returning it so the task is reported as failed at exit, not
// silently left Ready.
func (e *Executor) Spawn() error {
	if err := e.spawn(); err != nil {
		e.mu.Lock()
		e.spawnErr = err
		e.mu.Unlock()
		return err
	}
	return nil
}

func (e *Executor) spawn() error {
	parts := SplitCommand(e.raw)
	if len(parts) == 0 {
		return fmt.Errorf("spawn %q: empty command", e.raw)
	}
	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Stdin = nil
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("spawn %q: stdout pipe: %w", e.raw, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("spawn %q: stderr pipe: %w", e.raw, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %q: %w", e.raw, err)
	}

	e.mu.Lock()
	e.cmd = cmd
	e.pid = cmd.Process.Pid
	e.started = true
	e.mu.Unlock()
	e.log.Debug("task spawned", zap.Int("pid", cmd.Process.Pid))

	raw := make(chan string, 64)
	var readers sync.WaitGroup
	readers.Add(2)
	go e.readLines(stdout, raw, &readers)
	go e.readLines(stderr, raw, &readers)
	go func() {
		readers.Wait()
		close(raw)
	}()
	go e.forward(raw)
	go e.reap(cmd, &readers)
	return nil
}

// readLines scans one pipe line by line into the shared channel until EOF.
func (e *Executor) readLines(r io.Reader, out chan<- string, readers *sync.WaitGroup) {
	defer readers.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		out <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		// Broken pipe or an over-long line ends this stream early;
		// output already captured stays visible.
		e.log.Debug("output stream ended early", zap.Error(err))
	}
}

// forward moves lines onto the unbounded queue until the stop signal fires.
// The race between a pending line and the stop signal decides whether one
// last line is forwarded after the stop request.
func (e *Executor) forward(raw <-chan string) {
	defer close(e.fwdDone)
	for {
		select {
		case <-e.stop:
			// Keep draining so the pipe readers reach EOF and the
			// child can be reaped.
			for range raw {
			}
			return
		case line, ok := <-raw:
			if !ok {
				return
			}
			e.lines.Push(line)
			e.sender.NeedRedraw()
		}
	}
}

// reap waits for the output streams to finish, collects the child's exit
// status exactly once, and releases every Wait caller.
func (e *Executor) reap(cmd *exec.Cmd, readers *sync.WaitGroup) {
	readers.Wait()
	// Every captured line is on the queue before Wait callers resume.
	<-e.fwdDone
	rec := exitRecord{}
	err := cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		rec.desc = cmd.ProcessState.String()
		rec.code = cmd.ProcessState.ExitCode()
	case errors.As(err, &exitErr):
		rec.desc = exitErr.ProcessState.String()
		rec.code = exitErr.ProcessState.ExitCode()
	default:
		rec.err = fmt.Errorf("wait %q: %w", e.raw, err)
	}
	e.mu.Lock()
	e.exit = rec
	e.mu.Unlock()
	e.stopForward()
	close(e.done)
	e.log.Debug("task reaped", zap.String("exit", rec.desc), zap.Error(rec.err))
}

func (e *Executor) stopForward() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// TryWait reports the current status without blocking. A task whose spawn
// failed stays Ready and carries the spawn error.
func (e *Executor) TryWait() (Status, error) {
	e.mu.Lock()
	started, pid, spawnErr := e.started, e.pid, e.spawnErr
	e.mu.Unlock()
	if !started {
		return Status{Kind: StatusReady, Command: e.raw}, spawnErr
	}
	select {
	case <-e.done:
		return e.terminalStatus()
	default:
		return Status{Kind: StatusExecuting, Command: e.raw, PID: pid}, nil
	}
}

// Wait blocks until the process terminates and returns its terminal status.
// An unspawned task returns immediately with any retained spawn error.
func (e *Executor) Wait() (Status, error) {
	e.mu.Lock()
	started, spawnErr := e.started, e.spawnErr
	e.mu.Unlock()
	if !started {
		return Status{Kind: StatusReady, Command: e.raw}, spawnErr
	}
	<-e.done
	return e.terminalStatus()
}

func (e *Executor) terminalStatus() (Status, error) {
	e.mu.Lock()
	rec, pid := e.exit, e.pid
	e.mu.Unlock()
	if rec.err != nil {
		return Status{Kind: StatusExecuting, Command: e.raw, PID: pid}, rec.err
	}
	if e.killed.Load() {
		return Status{Kind: StatusKilled, Command: e.raw, PID: pid}, nil
	}
	return Status{
		Kind:       StatusExited,
		Command:    e.raw,
		PID:        pid,
		ExitStatus: rec.desc,
		ExitCode:   rec.code,
	}, nil
}

// Signal delivers a stop signal of the given class to the child and stops
// the output forwarder.
func (e *Executor) Signal(sig Signal) error {
	e.mu.Lock()
	started, pid := e.started, e.pid
	e.mu.Unlock()
	if !started || pid == 0 {
		return ErrInvalidPid
	}
	e.stopForward()
	e.log.Debug("signalling task", zap.Stringer("signal", sig), zap.Int("pid", pid))
	if err := e.deliver(pid, sig); err != nil {
		return fmt.Errorf("signal %s to pid %d: %w", sig, pid, err)
	}
	return nil
}

// Kill forcibly terminates the child and stops the output forwarder. The
// terminal status becomes Killed.
func (e *Executor) Kill() error {
	e.mu.Lock()
	started, cmd := e.started, e.cmd
	e.mu.Unlock()
	if !started || cmd == nil || cmd.Process == nil {
		return ErrInvalidPid
	}
	e.stopForward()
	select {
	case <-e.done:
		// The child exited before the kill; its natural status stands.
		return nil
	default:
	}
	e.killed.Store(true)
	e.log.Debug("killing task", zap.Int("pid", cmd.Process.Pid))
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill %q: %w", e.raw, err)
	}
	return nil
}

// SignalOrWait asks ex to stop gracefully with sig and blocks for its
// terminal status. When the signal cannot be delivered it falls back to
// KillAndWait; a task already terminal is returned as-is.
func SignalOrWait(ex Executable, sig Signal) (Status, error) {
	status, err := ex.TryWait()
	if err != nil {
		return status, err
	}
	if status.Kind != StatusExecuting {
		return status, nil
	}
	if err := ex.Signal(sig); err != nil {
		return KillAndWait(ex)
	}
	return ex.Wait()
}

// InterruptAndWait is SignalOrWait with the graceful interrupt class.
func InterruptAndWait(ex Executable) (Status, error) {
	return SignalOrWait(ex, SignalInterrupt)
}

// KillAndWait forcibly terminates ex and blocks for its terminal status.
func KillAndWait(ex Executable) (Status, error) {
	if err := ex.Kill(); err != nil {
		st, _ := ex.TryWait()
		return st, err
	}
	return ex.Wait()
}

// ID identifies this executor in log lines.
func (e *Executor) ID() uuid.UUID { return e.id }
