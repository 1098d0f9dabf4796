package tasktracker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaelorun/agentcore/internal/toolkit"
	"github.com/kaelorun/agentcore/internal/workspace"
)

// Tool adapts Tracker to the toolkit.Tool contract as "task_tracker".
type Tool struct {
	tracker *Tracker
}

// NewTool returns a task_tracker tool scoped to root.
func NewTool(root workspace.Root) *Tool {
	return &Tool{tracker: New(root)}
}

func (t *Tool) Name() string { return "task_tracker" }

func (t *Tool) Description() string {
	return "View or replace the workspace checklist, persisted to tasks.json."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "command": {"type": "string", "enum": ["view", "plan"]},
    "task_list": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "notes": {"type": "string"},
          "status": {"type": "string", "enum": ["todo", "in_progress", "done"]}
        },
        "required": ["title", "status"]
      }
    }
  },
  "required": ["command"]
}`)
}

func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*toolkit.ToolResult, error) {
	var args struct {
		Command  string `json:"command"`
		TaskList []Item `json:"task_list"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	content, err := t.tracker.Run(args.Command, args.TaskList)
	if err != nil {
		return nil, err
	}
	return &toolkit.ToolResult{Content: content}, nil
}
