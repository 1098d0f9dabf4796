package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaelorun/agentcore/internal/toolkit"
	"github.com/kaelorun/agentcore/internal/workspace"
)

// GlobTool adapts Search.Glob to the toolkit.Tool contract as "glob".
type GlobTool struct{ search *Search }

func NewGlobTool(root workspace.Root) *GlobTool { return &GlobTool{search: New(root)} }

func (t *GlobTool) Name() string        { return "glob" }
func (t *GlobTool) Description() string { return "Find files under the workspace matching a glob pattern." }
func (t *GlobTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "pattern": {"type": "string"},
    "path": {"type": "string"}
  },
  "required": ["pattern"]
}`)
}

func (t *GlobTool) Execute(ctx context.Context, params json.RawMessage) (*toolkit.ToolResult, error) {
	var args struct {
		Pattern string  `json:"pattern"`
		Path    *string `json:"path"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	content, err := t.search.Glob(args.Pattern, args.Path)
	if err != nil {
		return nil, err
	}
	return &toolkit.ToolResult{Content: content}, nil
}

// GrepTool adapts Search.Grep to the toolkit.Tool contract as "grep".
type GrepTool struct{ search *Search }

func NewGrepTool(root workspace.Root) *GrepTool { return &GrepTool{search: New(root)} }

func (t *GrepTool) Name() string        { return "grep" }
func (t *GrepTool) Description() string { return "Search file contents under the workspace with a regular expression." }
func (t *GrepTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "pattern": {"type": "string"},
    "path": {"type": "string"},
    "include": {"type": "string"}
  },
  "required": ["pattern"]
}`)
}

func (t *GrepTool) Execute(ctx context.Context, params json.RawMessage) (*toolkit.ToolResult, error) {
	var args struct {
		Pattern string  `json:"pattern"`
		Path    *string `json:"path"`
		Include *string `json:"include"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	content, err := t.search.Grep(args.Pattern, args.Path, args.Include)
	if err != nil {
		return nil, err
	}
	return &toolkit.ToolResult{Content: content}, nil
}
