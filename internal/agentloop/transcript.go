package agentloop

import "github.com/kaelorun/agentcore/internal/llm"

// buildTranscript maps a conversation's history onto the chat-turn
// vocabulary a model client expects: a fixed system turn, then one turn per
// historical event — Message{"user"} to a user turn, Message{"agent"} to an
// assistant turn, Action to an assistant turn carrying one tool call, and
// Observation to a tool-response turn keyed by its tool_call_id.
func buildTranscript(systemMessage string, history []Event) []llm.ChatTurn {
	turns := []llm.ChatTurn{{Role: llm.RoleSystem, Content: systemPromptPrefix + "\n\n" + systemMessage}}

	for _, ev := range history {
		switch ev.Kind {
		case KindMessage:
			role := llm.RoleAssistant
			if ev.Source == "user" {
				role = llm.RoleUser
			}
			turns = append(turns, llm.ChatTurn{Role: role, Content: ev.Content})
		case KindAction:
			turns = append(turns, llm.ChatTurn{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{{
					ID:        ev.ToolCallID,
					Name:      ev.ToolName,
					Arguments: ev.Arguments,
				}},
			})
		case KindObservation:
			turns = append(turns, llm.ChatTurn{
				Role:       llm.RoleTool,
				Content:    ev.ObservationContent,
				ToolCallID: ev.ToolCallID,
			})
		}
	}

	return turns
}
