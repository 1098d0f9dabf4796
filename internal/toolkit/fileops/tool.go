package fileops

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaelorun/agentcore/internal/toolkit"
	"github.com/kaelorun/agentcore/internal/workspace"
)

// ReadTool adapts Ops.ReadFile to the toolkit.Tool contract as "read_file".
type ReadTool struct{ ops *Ops }

func NewReadTool(root workspace.Root) *ReadTool { return &ReadTool{ops: New(root)} }

func (t *ReadTool) Name() string        { return "read_file" }
func (t *ReadTool) Description() string { return "Read a file from the workspace, with optional pagination." }
func (t *ReadTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "path": {"type": "string"},
    "offset": {"type": "integer", "minimum": 0},
    "limit": {"type": "integer", "minimum": 1}
  },
  "required": ["path"]
}`)
}

func (t *ReadTool) Execute(ctx context.Context, params json.RawMessage) (*toolkit.ToolResult, error) {
	var args struct {
		Path   string  `json:"path"`
		Offset *uint64 `json:"offset"`
		Limit  *uint64 `json:"limit"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	content, err := t.ops.ReadFile(args.Path, args.Offset, args.Limit)
	if err != nil {
		return nil, err
	}
	return &toolkit.ToolResult{Content: content}, nil
}

// WriteTool adapts Ops.WriteFile to the toolkit.Tool contract as "write_file".
type WriteTool struct{ ops *Ops }

func NewWriteTool(root workspace.Root) *WriteTool { return &WriteTool{ops: New(root)} }

func (t *WriteTool) Name() string        { return "write_file" }
func (t *WriteTool) Description() string { return "Write content to a file in the workspace, creating it if needed." }
func (t *WriteTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "path": {"type": "string"},
    "content": {"type": "string"}
  },
  "required": ["path", "content"]
}`)
}

func (t *WriteTool) Execute(ctx context.Context, params json.RawMessage) (*toolkit.ToolResult, error) {
	var args struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	content, err := t.ops.WriteFile(args.Path, args.Content)
	if err != nil {
		return nil, err
	}
	return &toolkit.ToolResult{Content: content}, nil
}

// ListTool adapts Ops.ListFiles to the toolkit.Tool contract as "list_files".
type ListTool struct{ ops *Ops }

func NewListTool(root workspace.Root) *ListTool { return &ListTool{ops: New(root)} }

func (t *ListTool) Name() string        { return "list_files" }
func (t *ListTool) Description() string { return "List files and directories under a workspace path." }
func (t *ListTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "path": {"type": "string"},
    "recursive": {"type": "boolean"}
  },
  "required": ["path"]
}`)
}

func (t *ListTool) Execute(ctx context.Context, params json.RawMessage) (*toolkit.ToolResult, error) {
	var args struct {
		Path      string `json:"path"`
		Recursive bool   `json:"recursive"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	content, err := t.ops.ListFiles(args.Path, args.Recursive)
	if err != nil {
		return nil, err
	}
	return &toolkit.ToolResult{Content: content}, nil
}

// DeleteTool adapts Ops.DeleteFile to the toolkit.Tool contract as "delete_file".
type DeleteTool struct{ ops *Ops }

func NewDeleteTool(root workspace.Root) *DeleteTool { return &DeleteTool{ops: New(root)} }

func (t *DeleteTool) Name() string        { return "delete_file" }
func (t *DeleteTool) Description() string { return "Delete a file or directory (recursively) from the workspace." }
func (t *DeleteTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "path": {"type": "string"}
  },
  "required": ["path"]
}`)
}

func (t *DeleteTool) Execute(ctx context.Context, params json.RawMessage) (*toolkit.ToolResult, error) {
	var args struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	content, err := t.ops.DeleteFile(args.Path)
	if err != nil {
		return nil, err
	}
	return &toolkit.ToolResult{Content: content}, nil
}
