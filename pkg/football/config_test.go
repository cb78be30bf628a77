package football

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPrompts_SubstitutesSeasonsAndDate(t *testing.T) {
	prompts, err := RenderPrompts()
	require.NoError(t, err)

	assert.Contains(t, prompts.AnalyzePlayerDecide, ThisSeason)
	assert.Contains(t, prompts.AnalyzePlayerDecide, LastSeason)
	assert.Contains(t, prompts.AnalyzePlayerDecide, Today())
	assert.NotContains(t, prompts.AnalyzePlayerDecide, "{{")

	assert.Contains(t, prompts.AnalyzeGameDecide, ThisSeason)
	assert.NotContains(t, prompts.AnalyzeGameDecide, "{{")

	// the router prompt names every label it may emit
	assert.Contains(t, prompts.Router, AgentAnalyzePlayer)
	assert.Contains(t, prompts.Router, AgentAnalyzeGame)
	assert.Contains(t, prompts.Router, AgentNormal)
}

func TestToday_Format(t *testing.T) {
	today := Today()
	parsed, err := time.Parse("2006-1-2 Monday", today)
	require.NoError(t, err)
	assert.Equal(t, time.Now().Day(), parsed.Day())
}

func TestMarshalWithErrors(t *testing.T) {
	content, err := marshalWithErrors([]string{"ignored"}, []ErrorPayload{
		{Error: LookupError{Code: ErrCodeNotFound, Parameter: "player_name", Value: "Nobody"}},
	})
	require.NoError(t, err)
	assert.Contains(t, content, "[Tool Error]")
	assert.Contains(t, content, `"message":"404"`)
	assert.Contains(t, content, `"player_name"`)

	content, err = marshalWithErrors([]map[string]int{{"goals": 3}}, nil)
	require.NoError(t, err)
	assert.NotContains(t, content, "[Tool Error]")
	assert.Contains(t, content, `"goals":3`)
}
