package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/scoutgpt/pkg/events"
)

// ToolExecutor runs tool calls against a registry.
type ToolExecutor interface {
	ExecuteToolCall(ctx context.Context, toolCall ToolCall, registry ToolRegistry) (*ToolResult, error)
	ExecuteToolCalls(ctx context.Context, toolCalls []ToolCall, registry ToolRegistry) ([]*ToolResult, error)
}

// DefaultToolExecutor executes tool calls sequentially. Expected failure
// modes (unknown tool, bad arguments, tool-level errors) never surface as
// Go errors; they come back as marker-prefixed result content so the
// conversation can continue.
type DefaultToolExecutor struct {
	config ToolConfig
}

func NewDefaultToolExecutor(config ToolConfig) *DefaultToolExecutor {
	return &DefaultToolExecutor{config: config}
}

func (e *DefaultToolExecutor) ExecuteToolCall(ctx context.Context, toolCall ToolCall, registry ToolRegistry) (*ToolResult, error) {
	events.PublishEventToContext(ctx, events.NewToolCallExecuteEvent(
		events.EventMetadata{},
		events.ToolCall{ID: toolCall.ID, Name: toolCall.Name, Input: string(toolCall.Arguments)},
	))

	result := &ToolResult{ID: toolCall.ID}
	result.Content = e.run(ctx, toolCall, registry)

	events.PublishEventToContext(ctx, events.NewToolCallExecutionResultEvent(
		events.EventMetadata{},
		events.ToolResult{ID: toolCall.ID, Result: result.Content},
	))

	return result, nil
}

func (e *DefaultToolExecutor) run(ctx context.Context, toolCall ToolCall, registry ToolRegistry) string {
	toolDef, err := registry.GetTool(toolCall.Name)
	if err != nil {
		return ErrorResultf("tool not found: %s", toolCall.Name)
	}
	if !e.config.IsToolAllowed(toolCall.Name) {
		return ErrorResultf("tool not allowed: %s", toolCall.Name)
	}

	if e.config.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.ExecutionTimeout)
		defer cancel()
	}

	start := time.Now()
	value, err := toolDef.Function.Execute(ctx, toolCall.Arguments)
	log.Debug().
		Str("tool", toolCall.Name).
		Str("tool_call_id", toolCall.ID).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("tool executed")
	if err != nil {
		return ErrorResult(err)
	}

	return MarshalResultContent(value)
}

// MarshalResultContent renders a tool function's return value as the
// content string fed back to the model. Strings pass through unchanged so
// tools can encode their own error markers.
func MarshalResultContent(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

func (e *DefaultToolExecutor) ExecuteToolCalls(ctx context.Context, toolCalls []ToolCall, registry ToolRegistry) ([]*ToolResult, error) {
	results := make([]*ToolResult, 0, len(toolCalls))
	for _, tc := range toolCalls {
		result, err := e.ExecuteToolCall(ctx, tc, registry)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

var _ ToolExecutor = (*DefaultToolExecutor)(nil)
