package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kaelorun/agentcore/internal/observability"
	"github.com/kaelorun/agentcore/internal/toolkit"
)

// LocalRuntime executes tools directly in-process via a toolkit.Registry.
type LocalRuntime struct {
	registry *toolkit.Registry
	tools    []toolkit.Tool
	metrics  *observability.Metrics
}

// NewLocalRuntime returns a LocalRuntime advertising tools and dispatching
// through registry. registry is expected to already hold tools (or a
// superset of them); tools is the advertised subset shown to the model.
func NewLocalRuntime(registry *toolkit.Registry, tools []toolkit.Tool) *LocalRuntime {
	return &LocalRuntime{registry: registry, tools: tools}
}

// WithMetrics attaches m so every dispatched tool call is recorded. It
// returns r for chaining and is a no-op choice, not a requirement: a nil
// metrics field simply skips recording.
func (r *LocalRuntime) WithMetrics(m *observability.Metrics) *LocalRuntime {
	r.metrics = m
	return r
}

func (r *LocalRuntime) Tools() []toolkit.Tool { return r.tools }

func (r *LocalRuntime) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	start := time.Now()
	result, err := r.registry.Execute(ctx, name, args)
	if err != nil {
		r.recordExecution(name, "error", start)
		return "", err
	}
	if result.IsError {
		r.recordExecution(name, "error", start)
		return "", fmt.Errorf("%s", result.Content)
	}
	r.recordExecution(name, "success", start)
	return result.Content, nil
}

func (r *LocalRuntime) recordExecution(name, status string, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordToolExecution(name, status, time.Since(start).Seconds())
}
