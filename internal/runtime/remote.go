package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kaelorun/agentcore/internal/toolkit"
)

// RemoteRuntime advertises a fixed tool set for schema exposure but
// dispatches execution over HTTP to a peer agent server. Only execute_bash,
// read_file, and write_file have a wire mapping; any other tool name fails
// with a fixed "not yet supported" message.
type RemoteRuntime struct {
	BaseURL string
	client  *http.Client
	tools   []toolkit.Tool
}

// NewRemoteRuntime returns a RemoteRuntime targeting baseURL.
func NewRemoteRuntime(baseURL string, tools []toolkit.Tool) *RemoteRuntime {
	return &RemoteRuntime{
		BaseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		tools:   tools,
	}
}

func (r *RemoteRuntime) Tools() []toolkit.Tool { return r.tools }

type executeBashRequest struct {
	Command string  `json:"command"`
	Cwd     *string `json:"cwd,omitempty"`
	Timeout *uint64 `json:"timeout,omitempty"`
}

type bashOutputResponse struct {
	ExitCode *int32  `json:"exit_code"`
	Stdout   *string `json:"stdout"`
	Stderr   *string `json:"stderr"`
}

type fileReadRequest struct {
	Path string `json:"path"`
}

type fileWriteRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type fileResponse struct {
	Path    string  `json:"path"`
	Content *string `json:"content,omitempty"`
	Success bool    `json:"success"`
	Error   *string `json:"error,omitempty"`
}

func (r *RemoteRuntime) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	switch name {
	case "execute_bash":
		return r.executeBash(ctx, args)
	case "read_file":
		return r.readFile(ctx, args)
	case "write_file":
		return r.writeFile(ctx, args)
	default:
		return "", fmt.Errorf("Tool %s not yet supported via RemoteRuntime API", name)
	}
}

func (r *RemoteRuntime) executeBash(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Command string  `json:"command"`
		Cwd     *string `json:"cwd"`
		Timeout *uint64 `json:"timeout"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.Command == "" {
		return "", fmt.Errorf("missing command")
	}

	var out bashOutputResponse
	if err := r.postJSON(ctx, "/bash/execute_bash_command", executeBashRequest{
		Command: in.Command,
		Cwd:     in.Cwd,
		Timeout: in.Timeout,
	}, &out); err != nil {
		return "", err
	}

	var combined string
	if out.Stdout != nil {
		combined += *out.Stdout
	}
	if out.Stderr != nil {
		if combined != "" {
			combined += "\n"
		}
		combined += "Error output:\n" + *out.Stderr
	}
	return combined, nil
}

func (r *RemoteRuntime) readFile(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.Path == "" {
		return "", fmt.Errorf("missing path")
	}

	var out fileResponse
	if err := r.postJSON(ctx, "/file/read", fileReadRequest{Path: in.Path}, &out); err != nil {
		return "", err
	}
	if !out.Success {
		if out.Error != nil {
			return "", fmt.Errorf("%s", *out.Error)
		}
		return "", fmt.Errorf("unknown error")
	}
	if out.Content != nil {
		return *out.Content, nil
	}
	return "", nil
}

func (r *RemoteRuntime) writeFile(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &in); err != nil || in.Path == "" {
		return "", fmt.Errorf("missing path or content")
	}

	var out fileResponse
	if err := r.postJSON(ctx, "/file/write", fileWriteRequest{Path: in.Path, Content: in.Content}, &out); err != nil {
		return "", err
	}
	if !out.Success {
		if out.Error != nil {
			return "", fmt.Errorf("%s", *out.Error)
		}
		return "", fmt.Errorf("unknown error")
	}
	return fmt.Sprintf("File written to %s", in.Path), nil
}

func (r *RemoteRuntime) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned error %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
