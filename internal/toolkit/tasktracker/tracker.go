// Package tasktracker implements the "task_tracker" tool: a checklist that
// round-trips through tasks.json in the workspace root.
package tasktracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaelorun/agentcore/internal/workspace"
)

// Item is one checklist entry.
type Item struct {
	Title  string `json:"title"`
	Notes  string `json:"notes"`
	Status string `json:"status"` // "todo", "in_progress", "done"
}

// Tracker persists its checklist to tasks.json under a workspace root.
type Tracker struct {
	root workspace.Root
}

// New returns a Tracker scoped to root.
func New(root workspace.Root) *Tracker {
	return &Tracker{root: root}
}

func (t *Tracker) tasksPath() (string, error) {
	return t.root.Join("tasks.json")
}

// Run dispatches "view" or "plan" and returns the rendered checklist.
func (t *Tracker) Run(command string, taskList []Item) (string, error) {
	path, err := t.tasksPath()
	if err != nil {
		return "Error: " + err.Error(), nil
	}

	tasks, err := loadTasks(path)
	if err != nil {
		return fmt.Sprintf("Error: Failed to read tasks.json: %v", err), nil
	}

	switch command {
	case "view":
		// fall through to rendering the loaded tasks.
	case "plan":
		if taskList != nil {
			tasks = taskList
			content, err := json.MarshalIndent(tasks, "", "  ")
			if err != nil {
				return fmt.Sprintf("Error: Failed to serialize tasks: %v", err), nil
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Sprintf("Error: Failed to write tasks.json: %v", err), nil
			}
			if err := os.WriteFile(path, content, 0o644); err != nil {
				return fmt.Sprintf("Error: Failed to write tasks.json: %v", err), nil
			}
		}
	default:
		return fmt.Sprintf("Error: Unknown command '%s'. Use 'view' or 'plan'.", command), nil
	}

	return render(tasks), nil
}

func loadTasks(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var tasks []Item
	if err := json.Unmarshal(data, &tasks); err != nil {
		// Best-effort load, matching the reference tracker's
		// unwrap_or_default on a malformed tasks.json.
		return nil, nil
	}
	return tasks, nil
}

func render(tasks []Item) string {
	var b strings.Builder
	for i, task := range tasks {
		mark := "[ ]"
		switch task.Status {
		case "done":
			mark = "[x]"
		case "in_progress":
			mark = "[/]"
		}
		fmt.Fprintf(&b, "%s %d. %s - %s\n", mark, i+1, task.Title, task.Notes)
	}
	if b.Len() == 0 {
		return "No tasks in the list."
	}
	return b.String()
}
