package bashexec

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kaelorun/agentcore/internal/events"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	store, err := events.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return NewExecutor(store)
}

func waitForOutput(t *testing.T, e *Executor, commandID interface {
	String() string
}) events.Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		page, err := e.store.Search(nil)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		for _, ev := range page.Items {
			if ev.Type == events.KindBashOutput && ev.CommandID.String() == commandID.String() {
				return ev
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for output")
	return events.Event{}
}

func TestStartSuccess(t *testing.T) {
	e := newTestExecutor(t)
	cmdEvent, err := e.Start("echo hello", nil, 5)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	out := waitForOutput(t, e, cmdEvent.ID)
	if out.ExitCode == nil || *out.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %v", out.ExitCode)
	}
	if out.Stdout == nil || !strings.Contains(*out.Stdout, "hello") {
		t.Fatalf("expected stdout to contain hello, got %v", out.Stdout)
	}
}

func TestStartTimeout(t *testing.T) {
	e := newTestExecutor(t)
	cmdEvent, err := e.Start("sleep 2", nil, 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	out := waitForOutput(t, e, cmdEvent.ID)
	if out.ExitCode == nil || *out.ExitCode != -1 {
		t.Fatalf("expected exit code -1, got %v", out.ExitCode)
	}
	if out.Stderr == nil || !strings.Contains(*out.Stderr, "timed out") {
		t.Fatalf("expected stderr to contain 'timed out', got %v", out.Stderr)
	}
}

func TestExecuteAndWaitReturnsTerminalOutput(t *testing.T) {
	e := newTestExecutor(t)
	_, out, err := e.ExecuteAndWait(context.Background(), "echo done", nil, 5)
	if err != nil {
		t.Fatalf("execute and wait: %v", err)
	}
	if out.ExitCode == nil || *out.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %v", out.ExitCode)
	}
}
