package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kaelorun/agentcore/internal/observability"
	"github.com/kaelorun/agentcore/internal/retry"
)

// defaultMaxTokens bounds a completion when the caller does not override it
// through AnthropicConfig.
const defaultMaxTokens = 4096

// AnthropicConfig configures an AnthropicClient.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64

	// Retry configures the backoff applied to transient completion failures.
	// The zero value uses retry.DefaultConfig.
	Retry retry.Config

	// Metrics records completion latency, token usage, and status, when set.
	Metrics *observability.Metrics
}

// AnthropicClient implements Client against the Anthropic Messages API.
type AnthropicClient struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	retryConfig retry.Config
	metrics     *observability.Metrics
}

// NewAnthropicClient builds an AnthropicClient from config.
func NewAnthropicClient(config AnthropicConfig) (*AnthropicClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if config.Model == "" {
		config.Model = "claude-sonnet-4-20250514"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.Retry == (retry.Config{}) {
		config.Retry = retry.DefaultConfig()
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicClient{
		client:      anthropic.NewClient(options...),
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		retryConfig: config.Retry,
		metrics:     config.Metrics,
	}, nil
}

func (c *AnthropicClient) Complete(ctx context.Context, turns []ChatTurn, tools []ToolSchema) (Completion, error) {
	start := time.Now()
	messages, system, err := convertTurns(turns)
	if err != nil {
		return Completion{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		Messages:  messages,
		MaxTokens: c.maxTokens,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: system}}
	}

	if len(tools) > 0 {
		toolParams, err := convertTools(tools)
		if err != nil {
			return Completion{}, err
		}
		params.Tools = toolParams
	}

	var message *anthropic.Message
	result := retry.Do(ctx, c.retryConfig, func() error {
		var callErr error
		message, callErr = c.client.Messages.New(ctx, params)
		if callErr == nil {
			return nil
		}
		if !isRetryableCompletionError(callErr) {
			return retry.Permanent(callErr)
		}
		return callErr
	})
	if result.Err != nil {
		c.recordRequest(start, "error", 0, 0)
		return Completion{}, fmt.Errorf("anthropic completion: %w", result.Err)
	}

	c.recordRequest(start, "success", int(message.Usage.InputTokens), int(message.Usage.OutputTokens))
	return parseMessage(message), nil
}

func (c *AnthropicClient) recordRequest(start time.Time, status string, promptTokens, completionTokens int) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordLLMRequest("anthropic", c.model, status, time.Since(start).Seconds(), promptTokens, completionTokens)
}

// isRetryableCompletionError reports whether err represents a transient
// failure (server error, rate limit) worth retrying rather than a
// request the caller must fix (bad input, bad credentials).
func isRetryableCompletionError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return true
		case apiErr.StatusCode >= 500:
			return true
		case apiErr.StatusCode >= 400:
			return false
		}
	}
	return true
}

func convertTurns(turns []ChatTurn) ([]anthropic.MessageParam, string, error) {
	var messages []anthropic.MessageParam
	var system string

	for _, turn := range turns {
		if turn.Role == RoleSystem {
			system = turn.Content
			continue
		}

		var content []anthropic.ContentBlockParamUnion
		if turn.Role == RoleTool {
			// A turn answering tool calls must lead with its tool_result
			// blocks; the observation belongs there, not in a duplicate
			// text block.
			content = append(content, anthropic.NewToolResultBlock(turn.ToolCallID, turn.Content, false))
		} else if turn.Content != "" {
			content = append(content, anthropic.NewTextBlock(turn.Content))
		}
		for _, call := range turn.ToolCalls {
			var input map[string]any
			if len(call.Arguments) > 0 {
				if err := json.Unmarshal(call.Arguments, &input); err != nil {
					return nil, "", fmt.Errorf("invalid tool call arguments for %s: %w", call.Name, err)
				}
			}
			content = append(content, anthropic.NewToolUseBlock(call.ID, input, call.Name))
		}

		var message anthropic.MessageParam
		if turn.Role == RoleAssistant {
			message = anthropic.NewAssistantMessage(content...)
		} else {
			message = anthropic.NewUserMessage(content...)
		}
		messages = append(messages, message)
	}

	return messages, system, nil
}

func convertTools(tools []ToolSchema) ([]anthropic.ToolUnionParam, error) {
	var result []anthropic.ToolUnionParam
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.Parameters, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name, err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", tool.Name)
		}
		toolParam.OfTool.Description = anthropic.String(tool.Description)
		result = append(result, toolParam)
	}
	return result, nil
}

func parseMessage(message *anthropic.Message) Completion {
	var out Completion
	for _, block := range message.Content {
		switch block.Type {
		case "text":
			out.Content += block.AsText().Text
		case "tool_use":
			toolUse := block.AsToolUse()
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        toolUse.ID,
				Name:      toolUse.Name,
				Arguments: toolUse.Input,
			})
		}
	}
	return out
}

var _ Client = (*AnthropicClient)(nil)
