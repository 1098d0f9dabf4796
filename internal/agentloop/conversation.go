package agentloop

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kaelorun/agentcore/internal/runtime"
)

// Conversation owns one agent session's history and the runtime it executes
// tool calls against. History is append-only and guarded independently of
// the runtime lock so a long-running model or tool call never blocks a
// concurrent reader taking a snapshot.
type Conversation struct {
	ID      string
	Agent   *Agent
	Runtime runtime.Runtime

	historyMu sync.RWMutex
	history   []Event

	runtimeMu sync.Mutex
}

// NewConversation starts a fresh conversation with agent driving rt.
func NewConversation(agent *Agent, rt runtime.Runtime) *Conversation {
	return &Conversation{
		ID:      uuid.New().String(),
		Agent:   agent,
		Runtime: rt,
	}
}

// Append adds an event to history. Append-only: history is never rewritten
// or truncated.
func (c *Conversation) Append(event Event) {
	c.historyMu.Lock()
	c.history = append(c.history, event)
	c.historyMu.Unlock()
}

// History returns a snapshot of the conversation's events, safe to read
// without holding the conversation's lock for the duration of a long
// operation.
func (c *Conversation) History() []Event {
	c.historyMu.RLock()
	defer c.historyMu.RUnlock()
	out := make([]Event, len(c.history))
	copy(out, c.history)
	return out
}

// Step runs one ReAct cycle to completion: build a transcript from history,
// call the model, and either terminate with a final agent Message or
// dispatch tool calls and loop, up to the agent's iteration cap. The
// runtime is held under an exclusive lock for the duration so every tool
// execution within this step sees a single consistent tool set.
func (c *Conversation) Step(ctx context.Context) (Event, error) {
	c.runtimeMu.Lock()
	defer c.runtimeMu.Unlock()
	return c.Agent.step(ctx, c, c.Runtime)
}
