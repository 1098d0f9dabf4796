package patch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaelorun/agentcore/internal/toolkit"
	"github.com/kaelorun/agentcore/internal/workspace"
)

// Tool implements the "apply_patch" tool: parse the dialect, locate hunks
// with fuzzy context, and write the resulting file set atomically.
type Tool struct {
	root workspace.Root
}

// NewTool returns an apply_patch tool scoped to root.
func NewTool(root workspace.Root) *Tool {
	return &Tool{root: root}
}

func (t *Tool) Name() string { return "apply_patch" }

func (t *Tool) Description() string {
	return "Apply a patch in the *** Begin Patch dialect to one or more workspace files."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "patch": {
      "type": "string",
      "description": "Patch text beginning with *** Begin Patch and ending with *** End Patch."
    }
  },
  "required": ["patch"]
}`)
}

func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*toolkit.ToolResult, error) {
	var input struct {
		Patch string `json:"patch"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Patch) == "" {
		return toolkit.ErrorResult("patch is required"), nil
	}

	needed := IdentifyFilesNeeded(input.Patch)
	origFiles := make(map[string]string, len(needed))
	for _, path := range needed {
		resolved, err := t.root.Join(path)
		if err != nil {
			return toolkit.ErrorResult(err.Error()), nil
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return toolkit.ErrorResult(fmt.Sprintf("Missing File: %s", path)), nil
		}
		origFiles[path] = string(data)
	}

	result, err := ProcessPatch(input.Patch, origFiles)
	if err != nil {
		return toolkit.ErrorResult(err.Error()), nil
	}

	for path, content := range result.Files {
		resolved, joinErr := t.root.Join(path)
		if joinErr != nil {
			return toolkit.ErrorResult(joinErr.Error()), nil
		}
		if content == nil {
			if err := os.Remove(resolved); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("remove %s: %w", path, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
			return nil, fmt.Errorf("create parent directories for %s: %w", path, err)
		}
		if err := os.WriteFile(resolved, []byte(*content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
	}

	return &toolkit.ToolResult{Content: result.Message}, nil
}
