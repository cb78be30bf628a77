package openai

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/scoutgpt/pkg/inference/engine"
	"github.com/go-go-golems/scoutgpt/pkg/inference/tools"
	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

// OpenAIEngine implements engine.Engine on top of the OpenAI chat
// completions API. When a tool registry is configured, the registry's
// tools (filtered by the tool config) are offered on every invocation;
// proposed calls come back as tool_call blocks and are never executed
// by the engine itself.
type OpenAIEngine struct {
	settings   *engine.Settings
	registry   tools.ToolRegistry
	toolConfig tools.ToolConfig
}

type Option func(*OpenAIEngine)

// WithToolRegistry makes the engine offer the registry's tools to the model.
func WithToolRegistry(registry tools.ToolRegistry) Option {
	return func(e *OpenAIEngine) {
		e.registry = registry
	}
}

// WithToolConfig sets tool filtering and tool choice behavior.
func WithToolConfig(cfg tools.ToolConfig) Option {
	return func(e *OpenAIEngine) {
		e.toolConfig = cfg
	}
}

func NewOpenAIEngine(settings *engine.Settings, options ...Option) (*OpenAIEngine, error) {
	e := &OpenAIEngine{
		settings:   settings,
		toolConfig: tools.DefaultToolConfig(),
	}
	for _, opt := range options {
		opt(e)
	}
	if _, err := MakeClient(settings); err != nil {
		return nil, err
	}
	return e, nil
}

// RunInference performs one chat completion over the Turn's block history
// and appends the model output as llm_text and/or tool_call blocks.
func (e *OpenAIEngine) RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error) {
	client, err := MakeClient(e.settings)
	if err != nil {
		return nil, err
	}

	req, err := MakeCompletionRequestFromTurn(e.settings, t)
	if err != nil {
		return nil, err
	}

	if e.registry != nil && e.toolConfig.Enabled {
		defs := e.toolConfig.FilterTools(e.registry.ListTools())
		AddToolsToRequest(req, defs, e.toolConfig.ToolChoice)
	}

	log.Debug().
		Str("model", req.Model).
		Int("num_messages", len(req.Messages)).
		Int("num_tools", len(req.Tools)).
		Msg("openai chat completion request")

	resp, err := client.CreateChatCompletion(ctx, *req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		log.Warn().Str("model", req.Model).Msg("openai returned no choices")
		return t, nil
	}

	msg := resp.Choices[0].Message
	log.Debug().
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Int("num_tool_calls", len(msg.ToolCalls)).
		Msg("openai chat completion response")

	AppendResponseBlocks(t, msg)
	return t, nil
}

var _ engine.Engine = (*OpenAIEngine)(nil)
