package agentloop

import (
	"context"
	"fmt"

	"github.com/kaelorun/agentcore/internal/llm"
	"github.com/kaelorun/agentcore/internal/runtime"
	"github.com/kaelorun/agentcore/internal/toolkit"
)

// maxIterations bounds how many model calls a single Step will make before
// giving up with a fatal error.
const maxIterations = 10

// systemPromptPrefix is prepended to every agent's own system message to
// build the transcript's system turn.
const systemPromptPrefix = "You are an autonomous coding agent. Use the available tools to accomplish the user's request, then respond with a final answer."

// Agent holds the fixed parts of one conversation's behavior: the model
// client and its system message. It is immutable and safe to share across
// concurrently running conversations.
type Agent struct {
	llm           llm.Client
	systemMessage string
}

// NewAgent returns an Agent driven by client with the given system message.
func NewAgent(client llm.Client, systemMessage string) *Agent {
	return &Agent{llm: client, systemMessage: systemMessage}
}

// step runs the ReAct cycle against history, appending every Action and
// Observation it produces to conv, and either returns a terminal agent
// Message or a fatal error once the iteration cap is reached.
func (a *Agent) step(ctx context.Context, conv *Conversation, rt runtime.Runtime) (Event, error) {
	tools := toolSchemas(rt.Tools())

	for i := 0; i < maxIterations; i++ {
		turns := buildTranscript(a.systemMessage, conv.History())

		completion, err := a.llm.Complete(ctx, turns, tools)
		if err != nil {
			return Event{}, fmt.Errorf("model completion: %w", err)
		}

		if len(completion.ToolCalls) == 0 {
			msg := NewAgentMessage(completion.Content)
			conv.Append(msg)
			return msg, nil
		}

		for _, call := range completion.ToolCalls {
			conv.Append(NewAction(call.Name, call.ID, call.Arguments, ""))

			output, execErr := rt.Execute(ctx, call.Name, call.Arguments)
			if execErr != nil {
				output = "Error: " + execErr.Error()
			}
			conv.Append(NewObservation(call.ID, output))
		}
	}

	return Event{}, fmt.Errorf("Max iterations reached")
}

func toolSchemas(tools []toolkit.Tool) []llm.ToolSchema {
	schemas := make([]llm.ToolSchema, len(tools))
	for i, t := range tools {
		schemas[i] = llm.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		}
	}
	return schemas
}
