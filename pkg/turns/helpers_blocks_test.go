package turns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertBlockBeforeLast(t *testing.T) {
	turn := &Turn{}
	AppendBlock(turn, NewUserTextBlock("first question"))
	AppendBlock(turn, NewUserTextBlock("second question"))

	instruction := NewSystemTextBlock("pick a tool")
	InsertBlockBeforeLast(turn, instruction)

	require.Len(t, turn.Blocks, 3)
	assert.Equal(t, BlockKindUser, turn.Blocks[0].Kind)
	assert.Equal(t, BlockKindSystem, turn.Blocks[1].Kind)
	assert.Equal(t, BlockKindUser, turn.Blocks[2].Kind)
	assert.Equal(t, "second question", BlockText(turn.Blocks[2]))
}

func TestInsertBlockBeforeLast_EmptyTurn(t *testing.T) {
	turn := &Turn{}
	InsertBlockBeforeLast(turn, NewSystemTextBlock("pick a tool"))

	require.Len(t, turn.Blocks, 1)
	assert.Equal(t, BlockKindSystem, turn.Blocks[0].Kind)
}

func TestUpsertBlockByID_ReplacesInPlace(t *testing.T) {
	turn := &Turn{}
	AppendBlock(turn, NewUserTextBlock("question"))
	call := NewToolCallBlock("call_1", "lookup", map[string]any{"parameters": []any{map[string]any{"player_name": "Saka"}}})
	AppendBlock(turn, call)
	AppendBlock(turn, NewUserTextBlock("trailing"))

	updated := call
	updated.Payload = map[string]any{
		PayloadKeyID:   "call_1",
		PayloadKeyName: "lookup",
		PayloadKeyArgs: map[string]any{"parameters": []any{map[string]any{"player_name": "Havertz"}}},
	}
	UpsertBlockByID(turn, updated)

	require.Len(t, turn.Blocks, 3)
	assert.Equal(t, call.ID, turn.Blocks[1].ID)
	args := turn.Blocks[1].Payload[PayloadKeyArgs].(map[string]any)
	params := args["parameters"].([]any)
	require.Len(t, params, 1)
	assert.Equal(t, "Havertz", params[0].(map[string]any)["player_name"])
}

func TestUpsertBlockByID_AppendsWhenMissing(t *testing.T) {
	turn := &Turn{}
	AppendBlock(turn, NewUserTextBlock("question"))

	UpsertBlockByID(turn, NewAssistantTextBlock("answer"))
	require.Len(t, turn.Blocks, 2)
	assert.Equal(t, BlockKindLLMText, turn.Blocks[1].Kind)
}

func TestRemoveBlocksByID(t *testing.T) {
	turn := &Turn{}
	a := NewUserTextBlock("keep")
	b := NewSystemTextBlock("drop")
	c := NewAssistantTextBlock("also drop")
	AppendBlocks(turn, a, b, c)

	removed := RemoveBlocksByID(turn, b.ID, c.ID, "not-there")
	assert.Equal(t, 2, removed)
	require.Len(t, turn.Blocks, 1)
	assert.Equal(t, a.ID, turn.Blocks[0].ID)
}

func TestLastBlockOfKind(t *testing.T) {
	turn := &Turn{}
	AppendBlock(turn, NewUserTextBlock("one"))
	AppendBlock(turn, NewAssistantTextBlock("two"))
	AppendBlock(turn, NewUserTextBlock("three"))

	b, idx := LastBlockOfKind(turn, BlockKindUser)
	require.Equal(t, 2, idx)
	assert.Equal(t, "three", BlockText(b))

	_, idx = LastBlockOfKind(turn, BlockKindToolCall)
	assert.Equal(t, -1, idx)
}

func TestClone_IsolatesMutations(t *testing.T) {
	turn := &Turn{ID: "session-1", Metadata: map[string]any{"agent_state": "done"}}
	AppendBlock(turn, NewUserTextBlock("original"))

	cp := turn.Clone()
	cp.Metadata["agent_state"] = "awaiting_decide"
	cp.Blocks[0].Payload[PayloadKeyText] = "mutated"
	AppendBlock(cp, NewUserTextBlock("extra"))

	assert.Equal(t, "done", turn.Metadata["agent_state"])
	assert.Equal(t, "original", BlockText(turn.Blocks[0]))
	assert.Len(t, turn.Blocks, 1)
}
