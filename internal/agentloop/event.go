// Package agentloop implements the ReAct tool-calling cycle: a Conversation
// accumulates agent-layer events (Message, Action, Observation) and an Agent
// drives one step at a time against an llm.Client and a runtime.Runtime.
package agentloop

import "encoding/json"

// EventKind discriminates the three agent-layer event shapes. These are a
// distinct vocabulary from the bash-layer events package, sharing only the
// name "Event" with it.
type EventKind string

const (
	KindMessage     EventKind = "Message"
	KindAction      EventKind = "Action"
	KindObservation EventKind = "Observation"
)

// Event is the tagged agent-layer record appended to a Conversation's
// history. Only the fields relevant to Kind are populated.
type Event struct {
	Kind EventKind `json:"kind"`

	// Message fields.
	Source  string `json:"source,omitempty"` // "user" or "agent"
	Content string `json:"content,omitempty"`

	// Action fields.
	ToolName   string          `json:"tool_name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	Thought    string          `json:"thought,omitempty"`

	// Observation fields (ToolCallID is shared with Action).
	ObservationContent string `json:"observation_content,omitempty"`
}

// NewUserMessage builds a Message event from the user.
func NewUserMessage(content string) Event {
	return Event{Kind: KindMessage, Source: "user", Content: content}
}

// NewAgentMessage builds a Message event from the agent.
func NewAgentMessage(content string) Event {
	return Event{Kind: KindMessage, Source: "agent", Content: content}
}

// NewAction builds an Action event for one model-requested tool call.
func NewAction(toolName, toolCallID string, arguments json.RawMessage, thought string) Event {
	return Event{Kind: KindAction, ToolName: toolName, ToolCallID: toolCallID, Arguments: arguments, Thought: thought}
}

// NewObservation builds the Observation event answering an Action with the
// same tool_call_id.
func NewObservation(toolCallID, content string) Event {
	return Event{Kind: KindObservation, ToolCallID: toolCallID, ObservationContent: content}
}
