package openai

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	go_openai "github.com/sashabaranov/go-openai"

	"github.com/go-go-golems/scoutgpt/pkg/inference/engine"
	"github.com/go-go-golems/scoutgpt/pkg/inference/tools"
	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

// MakeClient builds a go-openai client from engine settings.
func MakeClient(settings *engine.Settings) (*go_openai.Client, error) {
	if settings == nil {
		return nil, errors.New("no engine settings")
	}
	cfg := go_openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		cfg.BaseURL = settings.BaseURL
	}
	return go_openai.NewClientWithConfig(cfg), nil
}

// MakeCompletionRequestFromTurn converts a Turn's block history into a
// ChatCompletionRequest. Assistant tool_call blocks are grouped into a
// single assistant message, immediately followed by their tool results,
// to satisfy the provider's ordering constraints.
func MakeCompletionRequestFromTurn(settings *engine.Settings, t *turns.Turn) (*go_openai.ChatCompletionRequest, error) {
	if settings == nil || settings.Model == "" {
		return nil, errors.New("no model specified")
	}

	var msgs []go_openai.ChatCompletionMessage
	var pendingToolCalls []go_openai.ToolCall

	flushToolCalls := func() {
		if len(pendingToolCalls) == 0 {
			return
		}
		msgs = append(msgs, go_openai.ChatCompletionMessage{
			Role:      go_openai.ChatMessageRoleAssistant,
			ToolCalls: pendingToolCalls,
		})
		pendingToolCalls = nil
	}

	if t != nil {
		for _, b := range t.Blocks {
			switch b.Kind {
			case turns.BlockKindUser, turns.BlockKindSystem, turns.BlockKindLLMText:
				flushToolCalls()
				text := strings.TrimSpace(turns.BlockText(b))
				if text == "" {
					continue
				}
				role := go_openai.ChatMessageRoleUser
				switch b.Kind {
				case turns.BlockKindSystem:
					role = go_openai.ChatMessageRoleSystem
				case turns.BlockKindLLMText:
					role = go_openai.ChatMessageRoleAssistant
				}
				msgs = append(msgs, go_openai.ChatCompletionMessage{Role: role, Content: text})

			case turns.BlockKindToolCall:
				pendingToolCalls = append(pendingToolCalls, go_openai.ToolCall{
					ID:   payloadString(b.Payload, turns.PayloadKeyID),
					Type: go_openai.ToolTypeFunction,
					Function: go_openai.FunctionCall{
						Name:      payloadString(b.Payload, turns.PayloadKeyName),
						Arguments: payloadJSONString(b.Payload, turns.PayloadKeyArgs),
					},
				})

			case turns.BlockKindToolUse:
				flushToolCalls()
				msgs = append(msgs, go_openai.ChatCompletionMessage{
					Role:       go_openai.ChatMessageRoleTool,
					Content:    payloadJSONString(b.Payload, turns.PayloadKeyResult),
					ToolCallID: payloadString(b.Payload, turns.PayloadKeyID),
				})
			}
		}
	}
	flushToolCalls()

	req := &go_openai.ChatCompletionRequest{
		Model:    settings.Model,
		Messages: msgs,
	}
	if settings.Temperature != nil {
		req.Temperature = *settings.Temperature
	}
	if settings.MaxTokens != nil {
		req.MaxTokens = *settings.MaxTokens
	}
	return req, nil
}

// AddToolsToRequest attaches tool definitions and tool choice to a request.
func AddToolsToRequest(req *go_openai.ChatCompletionRequest, defs []tools.ToolDefinition, choice tools.ToolChoice) {
	if len(defs) == 0 {
		return
	}
	openaiTools := make([]go_openai.Tool, 0, len(defs))
	for _, def := range defs {
		openaiTools = append(openaiTools, go_openai.Tool{
			Type: go_openai.ToolTypeFunction,
			Function: go_openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}
	req.Tools = openaiTools

	switch choice {
	case tools.ToolChoiceNone:
		req.ToolChoice = "none"
	case tools.ToolChoiceRequired:
		req.ToolChoice = "required"
	default:
		req.ToolChoice = "auto"
	}
}

// AppendResponseBlocks converts one completion response message into
// llm_text and tool_call blocks on the Turn.
func AppendResponseBlocks(t *turns.Turn, msg go_openai.ChatCompletionMessage) {
	if strings.TrimSpace(msg.Content) != "" {
		turns.AppendBlock(t, turns.NewAssistantTextBlock(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			// keep raw string on parse failure so nothing is lost
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				args = map[string]any{"_raw": tc.Function.Arguments}
			}
		}
		turns.AppendBlock(t, turns.NewToolCallBlock(tc.ID, tc.Function.Name, args))
	}
}

func payloadString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	s, _ := payload[key].(string)
	return s
}

func payloadJSONString(payload map[string]any, key string) string {
	if payload == nil {
		return "{}"
	}
	switch v := payload[key].(type) {
	case nil:
		return "{}"
	case string:
		if strings.TrimSpace(v) == "" {
			return "{}"
		}
		return v
	case json.RawMessage:
		return string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "{}"
		}
		return string(b)
	}
}
