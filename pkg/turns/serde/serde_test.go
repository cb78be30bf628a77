package serde

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

func TestYAMLRoundTrip(t *testing.T) {
	turn := &turns.Turn{ID: "s1", Metadata: map[string]any{"agent_state": "done"}}
	turns.AppendBlock(turn, turns.NewUserTextBlock("how did Palmer do?"))
	turns.AppendBlock(turn, turns.NewToolCallBlock("call_1", "obtain_season_performance_data", map[string]any{
		"parameters": []any{map[string]any{"player_name": "Cole Palmer"}},
	}))
	turns.AppendBlock(turn, turns.NewToolUseBlock("call_1", `[{"goals": 22}]`))

	data, err := ToYAML(turn)
	require.NoError(t, err)

	back, err := FromYAML(data)
	require.NoError(t, err)

	assert.Equal(t, "s1", back.ID)
	assert.Equal(t, "done", back.Metadata["agent_state"])
	require.Len(t, back.Blocks, 3)
	assert.Equal(t, turns.BlockKindUser, back.Blocks[0].Kind)
	assert.Equal(t, turns.BlockKindToolCall, back.Blocks[1].Kind)
	assert.Equal(t, "call_1", back.Blocks[1].Payload[turns.PayloadKeyID])
}

func TestNormalizeTurn_SynthesizesAssistantRole(t *testing.T) {
	turn := &turns.Turn{Blocks: []turns.Block{
		{Kind: turns.BlockKindLLMText, Payload: map[string]any{turns.PayloadKeyText: "hello"}},
		{Kind: turns.BlockKindUser},
	}}

	NormalizeTurn(turn)
	assert.Equal(t, turns.RoleAssistant, turn.Blocks[0].Role)
	assert.NotNil(t, turn.Blocks[1].Payload)
}

func TestSaveAndLoadTurnYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")

	turn := &turns.Turn{ID: "s1"}
	turns.AppendBlock(turn, turns.NewUserTextBlock("persist me"))
	require.NoError(t, SaveTurnYAML(path, turn))

	back, err := LoadTurnYAML(path)
	require.NoError(t, err)
	require.Len(t, back.Blocks, 1)
	assert.Equal(t, "persist me", turns.BlockText(back.Blocks[0]))
}
