// Package runtime defines where an agent's tool calls actually execute:
// in-process against a local toolkit.Registry, proxied over HTTP to a peer
// server, or inside a Docker container running that peer server.
package runtime

import (
	"context"
	"encoding/json"

	"github.com/kaelorun/agentcore/internal/toolkit"
)

// Runtime decouples the agent loop's tool-calling logic from where tools
// actually execute.
type Runtime interface {
	// Tools lists the tools advertised to the model for schema exposure.
	Tools() []toolkit.Tool

	// Execute runs the named tool with args and returns its rendered output.
	// An error return means an infrastructure failure (tool not found, I/O
	// failure, peer unreachable); a successful "Error: "-prefixed string is
	// a validation/user error the model can recover from in-loop.
	Execute(ctx context.Context, name string, args json.RawMessage) (string, error)
}
