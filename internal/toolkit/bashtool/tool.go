// Package bashtool adapts bashexec.Executor to the toolkit.Tool contract as
// the "execute_bash" tool.
package bashtool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaelorun/agentcore/internal/bashexec"
	"github.com/kaelorun/agentcore/internal/toolkit"
)

// Tool runs a shell command to completion and renders its combined output.
type Tool struct {
	executor *bashexec.Executor
}

// NewTool returns an execute_bash tool backed by executor.
func NewTool(executor *bashexec.Executor) *Tool {
	return &Tool{executor: executor}
}

func (t *Tool) Name() string { return "execute_bash" }

func (t *Tool) Description() string {
	return "Run a shell command to completion in the workspace and return its combined output."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "command": {"type": "string"},
    "cwd": {"type": "string"},
    "timeout": {"type": "integer", "minimum": 1}
  },
  "required": ["command"]
}`)
}

func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*toolkit.ToolResult, error) {
	var args struct {
		Command string  `json:"command"`
		Cwd     *string `json:"cwd"`
		Timeout *uint64 `json:"timeout"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	timeout := uint64(300)
	if args.Timeout != nil {
		timeout = *args.Timeout
	}

	_, output, err := t.executor.ExecuteAndWait(ctx, args.Command, args.Cwd, timeout)
	if err != nil {
		return nil, err
	}

	var exitCode int32 = -1
	if output.ExitCode != nil {
		exitCode = *output.ExitCode
	}
	content := RenderOutput(output.Stdout, output.Stderr, exitCode)
	return &toolkit.ToolResult{Content: content}, nil
}

// RenderOutput formats a completed command's output the way execute_bash
// shows it to the model: combined stdout/stderr followed by an exit-code
// footer.
func RenderOutput(stdout, stderr *string, exitCode int32) string {
	var combined string
	if stdout != nil {
		combined += *stdout
	}
	if stderr != nil && *stderr != "" {
		if combined != "" && combined[len(combined)-1] != '\n' {
			combined += "\n"
		}
		combined += *stderr
	}
	if combined != "" && combined[len(combined)-1] != '\n' {
		combined += "\n"
	}
	return fmt.Sprintf("%s[Command finished with exit code %d]", combined, exitCode)
}
