package agentloop

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kaelorun/agentcore/internal/llm"
	"github.com/kaelorun/agentcore/internal/runtime"
	"github.com/kaelorun/agentcore/internal/toolkit"
)

// fakeClient replays a fixed sequence of completions, one per Complete call.
type fakeClient struct {
	completions []llm.Completion
	calls       int
}

func (f *fakeClient) Complete(_ context.Context, _ []llm.ChatTurn, _ []llm.ToolSchema) (llm.Completion, error) {
	if f.calls >= len(f.completions) {
		return llm.Completion{}, nil
	}
	c := f.completions[f.calls]
	f.calls++
	return c, nil
}

type echoTool struct{}

func (echoTool) Name() string            { return "echo" }
func (echoTool) Description() string     { return "echoes input" }
func (echoTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (echoTool) Execute(_ context.Context, args json.RawMessage) (*toolkit.ToolResult, error) {
	return &toolkit.ToolResult{Content: string(args)}, nil
}

func newLocalRuntime(t *testing.T) runtime.Runtime {
	t.Helper()
	registry := toolkit.NewRegistry()
	tool := echoTool{}
	if err := registry.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}
	return runtime.NewLocalRuntime(registry, []toolkit.Tool{tool})
}

func TestStepTerminatesWithoutToolCalls(t *testing.T) {
	client := &fakeClient{completions: []llm.Completion{{Content: "hello there"}}}
	agent := NewAgent(client, "be helpful")
	conv := NewConversation(agent, newLocalRuntime(t))
	conv.Append(NewUserMessage("hi"))

	event, err := conv.Step(context.Background())
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if event.Kind != KindMessage || event.Source != "agent" || event.Content != "hello there" {
		t.Fatalf("got %+v", event)
	}
}

func TestStepExecutesToolCallThenTerminates(t *testing.T) {
	client := &fakeClient{completions: []llm.Completion{
		{ToolCalls: []llm.ToolCall{{ID: "call-1", Name: "echo", Arguments: json.RawMessage(`{"x":1}`)}}},
		{Content: "done"},
	}}
	agent := NewAgent(client, "be helpful")
	conv := NewConversation(agent, newLocalRuntime(t))
	conv.Append(NewUserMessage("run echo"))

	event, err := conv.Step(context.Background())
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if event.Content != "done" {
		t.Fatalf("got %+v", event)
	}

	history := conv.History()
	var sawAction, sawObservation bool
	for _, ev := range history {
		if ev.Kind == KindAction && ev.ToolCallID == "call-1" {
			sawAction = true
		}
		if ev.Kind == KindObservation && ev.ToolCallID == "call-1" {
			sawObservation = true
			if !strings.Contains(ev.ObservationContent, `"x":1`) {
				t.Fatalf("observation missing echoed args: %q", ev.ObservationContent)
			}
		}
	}
	if !sawAction || !sawObservation {
		t.Fatalf("expected matching Action/Observation pair, history=%+v", history)
	}
}

func TestStepFatalAfterMaxIterations(t *testing.T) {
	completions := make([]llm.Completion, maxIterations)
	for i := range completions {
		completions[i] = llm.Completion{ToolCalls: []llm.ToolCall{{ID: "c", Name: "echo", Arguments: json.RawMessage(`{}`)}}}
	}
	client := &fakeClient{completions: completions}
	agent := NewAgent(client, "be helpful")
	conv := NewConversation(agent, newLocalRuntime(t))

	_, err := conv.Step(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Max iterations reached") {
		t.Fatalf("got %v", err)
	}
}
