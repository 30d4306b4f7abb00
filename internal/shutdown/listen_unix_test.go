//go:build unix

package shutdown

import (
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/BppleMan/parallely/internal/message"
)

// The listener intercepts the signal, so delivering SIGTERM to ourselves is
// safe here.
func TestListenPublishesShutdownOnSigterm(t *testing.T) {
	bus, sender := message.NewBus()
	handler := NewHandler(sender, nil)
	handler.Listen()
	// Give signal.Notify a moment to register.
	time.Sleep(50 * time.Millisecond)

	if err := unix.Kill(os.Getpid(), unix.SIGTERM); err != nil {
		t.Fatalf("self-signal failed: %v", err)
	}

	received := make(chan message.Message, 1)
	go func() {
		msg, ok := bus.Receive()
		if ok {
			received <- msg
		}
	}()
	select {
	case msg := <-received:
		shut, ok := msg.(message.Shutdown)
		if !ok {
			t.Fatalf("expected Shutdown, got %T", msg)
		}
		if shut.Reason != message.ReasonSigterm {
			t.Fatalf("reason = %v, want %v", shut.Reason, message.ReasonSigterm)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no shutdown message after SIGTERM")
	}
}
