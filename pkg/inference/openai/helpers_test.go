package openai

import (
	"testing"

	go_openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/scoutgpt/pkg/inference/engine"
	"github.com/go-go-golems/scoutgpt/pkg/inference/tools"
	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

func testSettings() *engine.Settings {
	temp := float32(0)
	return &engine.Settings{Model: "gpt-4o-mini", Temperature: &temp}
}

func TestMakeCompletionRequestFromTurn_RolesAndOrder(t *testing.T) {
	turn := &turns.Turn{}
	turns.AppendBlock(turn, turns.NewSystemTextBlock("pick a tool"))
	turns.AppendBlock(turn, turns.NewUserTextBlock("how did Palmer do?"))
	turns.AppendBlock(turn, turns.NewAssistantTextBlock("let me check"))

	req, err := MakeCompletionRequestFromTurn(testSettings(), turn)
	require.NoError(t, err)

	require.Len(t, req.Messages, 3)
	assert.Equal(t, go_openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, go_openai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, go_openai.ChatMessageRoleAssistant, req.Messages[2].Role)
	assert.Equal(t, "gpt-4o-mini", req.Model)
}

func TestMakeCompletionRequestFromTurn_GroupsToolCalls(t *testing.T) {
	turn := &turns.Turn{}
	turns.AppendBlock(turn, turns.NewUserTextBlock("compare Dybala and Osimhen"))
	turns.AppendBlock(turn, turns.NewToolCallBlock("call_1", "obtain_season_performance_data", map[string]any{"parameters": []any{}}))
	turns.AppendBlock(turn, turns.NewToolCallBlock("call_2", "obtain_season_performance_data", map[string]any{"parameters": []any{}}))
	turns.AppendBlock(turn, turns.NewToolUseBlock("call_1", `[{"goals": 10}]`))
	turns.AppendBlock(turn, turns.NewToolUseBlock("call_2", `[{"goals": 14}]`))

	req, err := MakeCompletionRequestFromTurn(testSettings(), turn)
	require.NoError(t, err)

	// user, one grouped assistant tool-call message, two tool results
	require.Len(t, req.Messages, 4)
	assistant := req.Messages[1]
	assert.Equal(t, go_openai.ChatMessageRoleAssistant, assistant.Role)
	require.Len(t, assistant.ToolCalls, 2)
	assert.Equal(t, "call_1", assistant.ToolCalls[0].ID)
	assert.Equal(t, "call_2", assistant.ToolCalls[1].ID)

	assert.Equal(t, go_openai.ChatMessageRoleTool, req.Messages[2].Role)
	assert.Equal(t, "call_1", req.Messages[2].ToolCallID)
	assert.Equal(t, `[{"goals": 10}]`, req.Messages[2].Content)
}

func TestMakeCompletionRequestFromTurn_RequiresModel(t *testing.T) {
	_, err := MakeCompletionRequestFromTurn(&engine.Settings{}, &turns.Turn{})
	assert.Error(t, err)
}

func TestAddToolsToRequest(t *testing.T) {
	def, err := tools.NewToolFromFunc("web_search", "searches the web",
		func(in struct {
			Query string `json:"query"`
		}) (string, error) {
			return "", nil
		})
	require.NoError(t, err)

	req := &go_openai.ChatCompletionRequest{}
	AddToolsToRequest(req, []tools.ToolDefinition{*def}, tools.ToolChoiceAuto)

	require.Len(t, req.Tools, 1)
	assert.Equal(t, "web_search", req.Tools[0].Function.Name)
	assert.Equal(t, "auto", req.ToolChoice)

	empty := &go_openai.ChatCompletionRequest{}
	AddToolsToRequest(empty, nil, tools.ToolChoiceAuto)
	assert.Empty(t, empty.Tools)
	assert.Nil(t, empty.ToolChoice)
}

func TestAppendResponseBlocks(t *testing.T) {
	turn := &turns.Turn{}
	AppendResponseBlocks(turn, go_openai.ChatCompletionMessage{
		Content: "checking the data",
		ToolCalls: []go_openai.ToolCall{{
			ID:   "call_1",
			Type: go_openai.ToolTypeFunction,
			Function: go_openai.FunctionCall{
				Name:      "obtain_season_performance_data",
				Arguments: `{"parameters":[{"player_name":"Saka"}]}`,
			},
		}},
	})

	require.Len(t, turn.Blocks, 2)
	assert.Equal(t, turns.BlockKindLLMText, turn.Blocks[0].Kind)
	assert.Equal(t, turns.BlockKindToolCall, turn.Blocks[1].Kind)
	args := turn.Blocks[1].Payload[turns.PayloadKeyArgs].(map[string]any)
	params := args["parameters"].([]any)
	require.Len(t, params, 1)
}

func TestAppendResponseBlocks_KeepsUnparseableArguments(t *testing.T) {
	turn := &turns.Turn{}
	AppendResponseBlocks(turn, go_openai.ChatCompletionMessage{
		ToolCalls: []go_openai.ToolCall{{
			ID:       "call_1",
			Function: go_openai.FunctionCall{Name: "lookup", Arguments: `{"broken`},
		}},
	})

	require.Len(t, turn.Blocks, 1)
	args := turn.Blocks[0].Payload[turns.PayloadKeyArgs].(map[string]any)
	assert.Equal(t, `{"broken`, args["_raw"])
}
