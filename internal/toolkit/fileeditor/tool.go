package fileeditor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaelorun/agentcore/internal/toolkit"
	"github.com/kaelorun/agentcore/internal/workspace"
)

// Tool adapts Editor to the toolkit.Tool contract as "file_editor".
type Tool struct {
	editor *Editor
}

// NewTool returns a file_editor tool scoped to root.
func NewTool(root workspace.Root) *Tool {
	return &Tool{editor: New(root)}
}

func (t *Tool) Name() string { return "file_editor" }

func (t *Tool) Description() string {
	return "View, create, and edit files in the workspace with str_replace/insert/undo support."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "command": {"type": "string", "enum": ["view", "create", "str_replace", "insert", "undo_edit"]},
    "path": {"type": "string"},
    "file_text": {"type": "string"},
    "view_range": {"type": "array", "items": {"type": "integer"}, "minItems": 2, "maxItems": 2},
    "old_str": {"type": "string"},
    "new_str": {"type": "string"},
    "insert_line": {"type": "integer", "minimum": 0}
  },
  "required": ["command", "path"]
}`)
}

func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*toolkit.ToolResult, error) {
	var args Args
	if err := json.Unmarshal(params, &args); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	content, err := t.editor.Run(args)
	if err != nil {
		return nil, err
	}
	return &toolkit.ToolResult{Content: content}, nil
}
