package task

import "testing"

func TestStatusStrings(t *testing.T) {
	cases := []struct {
		name   string
		status Status
		want   string
	}{
		{
			"ready",
			Status{Kind: StatusReady, Command: "echo hi"},
			"Ready: echo hi",
		},
		{
			"executing",
			Status{Kind: StatusExecuting, Command: "sleep 5", PID: 42},
			"Executing: sleep 5 (PID: 42)",
		},
		{
			"killed",
			Status{Kind: StatusKilled, Command: "sleep 5", PID: 42},
			"Killed: sleep 5 (PID: 42)",
		},
		{
			"exited",
			Status{Kind: StatusExited, Command: "echo hi", PID: 42, ExitStatus: "exit status 0"},
			"Exited: echo hi (PID: 42) with status: exit status 0",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.status.String(); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStatusKindTerminal(t *testing.T) {
	if StatusReady.Terminal() || StatusExecuting.Terminal() {
		t.Fatalf("transient states reported terminal")
	}
	if !StatusExited.Terminal() || !StatusKilled.Terminal() {
		t.Fatalf("terminal states not reported terminal")
	}
}
