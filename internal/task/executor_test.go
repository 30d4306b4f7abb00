//go:build unix

package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BppleMan/parallely/internal/message"
)

func newTestExecutor(t *testing.T, raw string) (*Executor, *message.Bus) {
	t.Helper()
	bus, sender := message.NewBus()
	return NewExecutor(raw, sender, nil), bus
}

func TestExecutorReadyBeforeSpawn(t *testing.T) {
	ex, _ := newTestExecutor(t, "echo hi")

	status, err := ex.TryWait()
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status.Kind)
	assert.Equal(t, "echo hi", status.Command)
	assert.Zero(t, ex.PID())

	status, err = ex.Wait()
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status.Kind)

	err = ex.Signal(SignalInterrupt)
	assert.ErrorIs(t, err, ErrInvalidPid)
	assert.ErrorIs(t, ex.Kill(), ErrInvalidPid)
}

func TestSpawnEmptyCommand(t *testing.T) {
	ex, _ := newTestExecutor(t, "   ")
	require.Error(t, ex.Spawn())
}

func TestSpawnUnknownProgram(t *testing.T) {
	ex, _ := newTestExecutor(t, "definitely-not-a-real-program-xyz")
	require.Error(t, ex.Spawn())

	// The failure is retained so the task is reported as failed, not as a
	// task that was never attempted.
	status, err := ex.TryWait()
	require.Error(t, err)
	assert.Equal(t, StatusReady, status.Kind)

	status, err = ex.Wait()
	require.Error(t, err)
	assert.Equal(t, StatusReady, status.Kind)

	_, err = SignalOrWait(ex, SignalInterrupt)
	require.Error(t, err, "escalation must surface the spawn failure")
}

func TestKillAfterExitKeepsExitedStatus(t *testing.T) {
	ex, _ := newTestExecutor(t, "echo hi")
	require.NoError(t, ex.Spawn())
	status, err := ex.Wait()
	require.NoError(t, err)
	require.Equal(t, StatusExited, status.Kind)

	// A kill racing a natural exit must not rewrite the terminal status.
	require.NoError(t, ex.Kill())
	status, err = ex.TryWait()
	require.NoError(t, err)
	assert.Equal(t, StatusExited, status.Kind)
}

func TestEchoExitsWithOutput(t *testing.T) {
	ex, bus := newTestExecutor(t, "echo hi")
	require.NoError(t, ex.Spawn())
	assert.Positive(t, ex.PID())

	status, err := ex.Wait()
	require.NoError(t, err)
	assert.Equal(t, StatusExited, status.Kind)
	assert.Equal(t, 0, status.ExitCode)
	assert.Equal(t, ex.PID(), status.PID)

	line, ok := ex.Lines().TryPop()
	require.True(t, ok, "expected a forwarded output line")
	assert.Equal(t, "hi", line)

	// The forwarder published at least one redraw for the line.
	msg, ok := bus.TryReceive()
	require.True(t, ok)
	assert.IsType(t, message.Redraw{}, msg)
}

func TestOutputLinesArriveInOrder(t *testing.T) {
	ex, _ := newTestExecutor(t, "seq 1 5")
	require.NoError(t, ex.Spawn())
	_, err := ex.Wait()
	require.NoError(t, err)

	want := []string{"1", "2", "3", "4", "5"}
	for _, w := range want {
		line, ok := ex.Lines().TryPop()
		require.True(t, ok, "missing line %q", w)
		assert.Equal(t, w, line)
	}
}

func TestTryWaitWhileExecutingThenKill(t *testing.T) {
	ex, _ := newTestExecutor(t, "sleep 5")
	require.NoError(t, ex.Spawn())

	status, err := ex.TryWait()
	require.NoError(t, err)
	assert.Equal(t, StatusExecuting, status.Kind)

	status, err = KillAndWait(ex)
	require.NoError(t, err)
	assert.Equal(t, StatusKilled, status.Kind)
}

func TestInterruptAndWaitStopsSleep(t *testing.T) {
	ex, _ := newTestExecutor(t, "sleep 5")
	require.NoError(t, ex.Spawn())

	start := time.Now()
	status, err := InterruptAndWait(ex)
	require.NoError(t, err)
	assert.Equal(t, StatusExited, status.Kind)
	assert.Contains(t, status.ExitStatus, "interrupt")
	assert.Less(t, time.Since(start), 3*time.Second, "interrupt did not take effect")
}

func TestSignalDeliveryFailureFallsBackToKill(t *testing.T) {
	ex, _ := newTestExecutor(t, "sleep 5")
	require.NoError(t, ex.Spawn())
	ex.deliver = func(pid int, sig Signal) error {
		return ErrNoPermission
	}

	status, err := InterruptAndWait(ex)
	require.NoError(t, err)
	assert.Equal(t, StatusKilled, status.Kind, "delivery failure must escalate to kill, not hang")
}

func TestVanishedTargetFallsBackToKill(t *testing.T) {
	ex, _ := newTestExecutor(t, "sleep 5")
	require.NoError(t, ex.Spawn())
	ex.deliver = func(pid int, sig Signal) error {
		return ErrNoWait
	}

	status, err := InterruptAndWait(ex)
	require.NoError(t, err)
	assert.Equal(t, StatusKilled, status.Kind)
}

func TestSignalOrWaitOnFinishedTask(t *testing.T) {
	ex, _ := newTestExecutor(t, "echo done")
	require.NoError(t, ex.Spawn())
	first, err := ex.Wait()
	require.NoError(t, err)
	require.Equal(t, StatusExited, first.Kind)

	// A task already terminal is returned as-is; no signal is delivered.
	delivered := false
	ex.deliver = func(pid int, sig Signal) error {
		delivered = true
		return nil
	}
	status, err := SignalOrWait(ex, SignalInterrupt)
	require.NoError(t, err)
	assert.Equal(t, StatusExited, status.Kind)
	assert.False(t, delivered)
}

func TestSendSignalRejectsPidZero(t *testing.T) {
	assert.ErrorIs(t, sendSignal(0, SignalInterrupt), ErrInvalidPid)
}
