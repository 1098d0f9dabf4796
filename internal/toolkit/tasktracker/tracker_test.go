package tasktracker

import (
	"testing"

	"github.com/kaelorun/agentcore/internal/workspace"
)

func TestPlanThenViewRoundTrips(t *testing.T) {
	dir := t.TempDir()
	tracker := New(workspace.New(dir))

	items := []Item{
		{Title: "Task 1", Notes: "Notes 1", Status: "todo"},
		{Title: "Task 2", Notes: "Notes 2", Status: "done"},
	}

	planned, err := tracker.Run("plan", items)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	want := "[ ] 1. Task 1 - Notes 1\n[x] 2. Task 2 - Notes 2\n"
	if planned != want {
		t.Fatalf("got %q want %q", planned, want)
	}

	viewed, err := tracker.Run("view", nil)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if viewed != want {
		t.Fatalf("view after plan got %q want %q", viewed, want)
	}
}

func TestUnknownCommand(t *testing.T) {
	tracker := New(workspace.New(t.TempDir()))
	out, err := tracker.Run("bogus", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "Error: Unknown command 'bogus'. Use 'view' or 'plan'." {
		t.Fatalf("got %q", out)
	}
}

func TestViewWithNoTasksYet(t *testing.T) {
	tracker := New(workspace.New(t.TempDir()))
	out, err := tracker.Run("view", nil)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if out != "No tasks in the list." {
		t.Fatalf("got %q", out)
	}
}
