package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

func TestCount(t *testing.T) {
	counter, err := NewCounter()
	require.NoError(t, err)

	assert.Equal(t, 0, counter.Count(""))
	assert.Greater(t, counter.Count("how did Saka play this season?"), 0)
}

func TestTrimPlan_UnderBudget(t *testing.T) {
	counter, err := NewCounter()
	require.NoError(t, err)

	turn := &turns.Turn{}
	turns.AppendBlock(turn, turns.NewUserTextBlock("short question"))

	assert.Nil(t, counter.TrimPlan(turn, 1000))
}

func TestTrimPlan_RemovesOldestWholeBlocks(t *testing.T) {
	counter, err := NewCounter()
	require.NoError(t, err)

	long := strings.Repeat("football statistics and ratings ", 40)
	turn := &turns.Turn{}
	oldest := turns.NewUserTextBlock(long)
	middle := turns.NewAssistantTextBlock(long)
	newest := turns.NewUserTextBlock("latest question")
	turns.AppendBlocks(turn, oldest, middle, newest)

	threshold := counter.BlockUsage(newest) + counter.BlockUsage(middle)
	ids := counter.TrimPlan(turn, threshold)
	require.Equal(t, []string{oldest.ID}, ids)

	turns.RemoveBlocksByID(turn, ids...)
	assert.LessOrEqual(t, counter.TurnUsage(turn), threshold)
	// only a prefix may go; the newest block survives
	require.Len(t, turn.Blocks, 2)
	assert.Equal(t, newest.ID, turn.Blocks[1].ID)
}

func TestBlockUsage_CountsToolPayloads(t *testing.T) {
	counter, err := NewCounter()
	require.NoError(t, err)

	statsJSON := `[{"player":"Cole Palmer","goals":22,"assists":11,"rating":7.92,` +
		`"minutesPlayed":2731,"expectedGoals":18.4,"bigChancesCreated":24}]`

	call := turns.NewToolCallBlock("call_1", "obtain_season_performance_data", map[string]any{
		"parameters": []any{map[string]any{"player_name": "Cole Palmer"}},
	})
	result := turns.NewToolUseBlock("call_1", statsJSON)

	assert.Greater(t, counter.BlockUsage(call), 0)
	assert.GreaterOrEqual(t, counter.BlockUsage(result), counter.Count(statsJSON))
}

func TestTrimPlan_FiresOnToolResultHeavySession(t *testing.T) {
	counter, err := NewCounter()
	require.NoError(t, err)

	bulky := `[{"statistics":"` + strings.Repeat("goals assists rating tackles ", 60) + `"}]`

	turn := &turns.Turn{}
	turns.AppendBlock(turn, turns.NewUserTextBlock("compare Palmer and Saka"))
	turns.AppendBlock(turn, turns.NewToolCallBlock("call_1", "obtain_season_performance_data", map[string]any{
		"parameters": []any{map[string]any{"player_name": "Cole Palmer"}},
	}))
	turns.AppendBlock(turn, turns.NewToolUseBlock("call_1", bulky))
	turns.AppendBlock(turn, turns.NewAssistantTextBlock("Palmer had the stronger season."))
	newest := turns.NewUserTextBlock("and what about last season?")
	turns.AppendBlock(turn, newest)

	ids := counter.TrimPlan(turn, 200)
	require.NotEmpty(t, ids)

	turns.RemoveBlocksByID(turn, ids...)
	assert.LessOrEqual(t, counter.TurnUsage(turn), 200)
	assert.Equal(t, newest.ID, turn.Blocks[len(turn.Blocks)-1].ID)
}

func TestTrimPlan_PlanIsAlwaysAPrefix(t *testing.T) {
	counter, err := NewCounter()
	require.NoError(t, err)

	turn := &turns.Turn{}
	var blocks []turns.Block
	for i := 0; i < 6; i++ {
		b := turns.NewUserTextBlock(strings.Repeat("pressing high up the pitch ", 20))
		blocks = append(blocks, b)
		turns.AppendBlock(turn, b)
	}

	ids := counter.TrimPlan(turn, counter.BlockUsage(blocks[0])*2)
	require.NotEmpty(t, ids)
	for i, id := range ids {
		assert.Equal(t, blocks[i].ID, id)
	}
}
