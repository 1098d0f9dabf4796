package toolkit

import (
	"context"
	"encoding/json"
	"testing"
)

type stubTool struct {
	name string
}

func (s stubTool) Name() string        { return s.name }
func (s stubTool) Description() string { return "stub" }
func (s stubTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object"}`)
}
func (s stubTool) Execute(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	return &ToolResult{Content: "ok"}, nil
}

func TestRegisterAndExecute(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubTool{name: "echo"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	result, err := r.Execute(context.Background(), "echo", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Content != "ok" {
		t.Fatalf("got %q", result.Content)
	}
}

func TestRegisterDuplicateRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubTool{name: "echo"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(stubTool{name: "echo"}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestExecuteUnknownToolErrors(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Execute(context.Background(), "missing", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}
