package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

func pendingSession() (*turns.Turn, turns.Block) {
	t := &turns.Turn{ID: "s1"}
	turns.AppendBlock(t, turns.NewUserTextBlock("how did Palmer do this season?"))
	turns.AppendBlock(t, turns.NewSystemTextBlock("pick a tool"))
	call := turns.NewToolCallBlock("call_1", "obtain_season_performance_data", map[string]any{
		"parameters": []any{map[string]any{
			"player_name":     "Cole Palmer",
			"tournament_name": "Premier League",
		}},
		"endpoint": "both",
	})
	turns.AppendBlock(t, call)
	SetSessionState(t, StateAwaitingConfirm)
	return t, call
}

func TestFindPendingToolCall(t *testing.T) {
	session, call := pendingSession()

	pending := FindPendingToolCall(session)
	require.NotNil(t, pending)
	assert.Equal(t, call.ID, pending.BlockID)
	assert.Equal(t, "call_1", pending.CallID)
	assert.Equal(t, "obtain_season_performance_data", pending.Name)

	// once a result references the call id, nothing is pending
	turns.AppendBlock(session, turns.NewToolUseBlock("call_1", `[]`))
	assert.Nil(t, FindPendingToolCall(session))

	// but the call is still reachable for error-retry bookkeeping
	last := LastToolCall(session)
	require.NotNil(t, last)
	assert.Equal(t, "call_1", last.CallID)
}

func TestFindPendingToolCall_ReturnsFirstOfSeveral(t *testing.T) {
	session := &turns.Turn{ID: "s1"}
	turns.AppendBlock(session, turns.NewUserTextBlock("compare Palmer and Saka"))
	turns.AppendBlock(session, turns.NewSystemTextBlock("pick a tool"))
	turns.AppendBlock(session, turns.NewToolCallBlock("call_1", "obtain_season_performance_data", map[string]any{
		"parameters": []any{map[string]any{"player_name": "Cole Palmer"}},
	}))
	turns.AppendBlock(session, turns.NewToolCallBlock("call_2", "obtain_season_performance_data", map[string]any{
		"parameters": []any{map[string]any{"player_name": "Bukayo Saka"}},
	}))

	pending := FindPendingToolCall(session)
	require.NotNil(t, pending)
	assert.Equal(t, "call_1", pending.CallID)

	// executing the first moves confirmation to the next
	turns.AppendBlock(session, turns.NewToolUseBlock("call_1", `[]`))
	pending = FindPendingToolCall(session)
	require.NotNil(t, pending)
	assert.Equal(t, "call_2", pending.CallID)
}

func TestPendingToolCall_ParametersJSON_UnwrapsSingleElement(t *testing.T) {
	session, _ := pendingSession()
	pending := FindPendingToolCall(session)
	require.NotNil(t, pending)

	params, err := pending.ParametersJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"player_name":"Cole Palmer","tournament_name":"Premier League"}`, params)
}

func TestAcceptPending_DeletesProposalAndInstruction(t *testing.T) {
	session, _ := pendingSession()

	removed := AcceptPending(session)
	assert.Equal(t, 2, removed)
	require.Len(t, session.Blocks, 1)
	assert.Equal(t, turns.BlockKindUser, session.Blocks[0].Kind)
	assert.Equal(t, StateAwaitingDecide, SessionState(session))
}

func TestAcceptPending_AfterFailedExecution(t *testing.T) {
	session, _ := pendingSession()
	turns.AppendBlock(session, turns.NewToolUseBlock("call_1", "[Tool Error] player not found"))

	removed := AcceptPending(session)
	assert.Equal(t, 3, removed)
	require.Len(t, session.Blocks, 1)
	assert.Equal(t, turns.BlockKindUser, session.Blocks[0].Kind)
	assert.Equal(t, StateAwaitingDecide, SessionState(session))
}

func TestAcceptPending_AbsorbsCompanionAssistantText(t *testing.T) {
	session := &turns.Turn{ID: "s1"}
	turns.AppendBlock(session, turns.NewUserTextBlock("how did Palmer do this season?"))
	turns.AppendBlock(session, turns.NewSystemTextBlock("pick a tool"))
	// models sometimes narrate while proposing the call
	turns.AppendBlock(session, turns.NewAssistantTextBlock("Let me pull up his season stats."))
	turns.AppendBlock(session, turns.NewToolCallBlock("call_1", "obtain_season_performance_data", map[string]any{
		"parameters": []any{map[string]any{"player_name": "Cole Palmer"}},
	}))
	SetSessionState(session, StateAwaitingConfirm)

	removed := AcceptPending(session)
	assert.Equal(t, 3, removed)
	require.Len(t, session.Blocks, 1)
	assert.Equal(t, turns.BlockKindUser, session.Blocks[0].Kind)
}

func TestAcceptPending_LeavesUnrelatedAssistantTextAlone(t *testing.T) {
	session := &turns.Turn{ID: "s1"}
	turns.AppendBlock(session, turns.NewUserTextBlock("hi"))
	final := turns.NewAssistantTextBlock("Hello! Ask me about any player.")
	turns.AppendBlock(session, final)

	removed := AcceptPending(session)
	assert.Equal(t, 0, removed)
	require.Len(t, session.Blocks, 2)
	assert.Equal(t, final.ID, session.Blocks[1].ID)
}

func TestAcceptPending_NothingPending(t *testing.T) {
	session := &turns.Turn{}
	turns.AppendBlock(session, turns.NewUserTextBlock("hello"))

	removed := AcceptPending(session)
	assert.Equal(t, 0, removed)
	assert.Len(t, session.Blocks, 1)
	assert.Equal(t, StateAwaitingDecide, SessionState(session))
}

func TestApplyParameterEdit_ReplacesParametersPreservingIdentity(t *testing.T) {
	session, call := pendingSession()

	err := ApplyParameterEdit(session, `{"player_name":"Eze","tournament_name":null}`, nil)
	require.NoError(t, err)

	require.Len(t, session.Blocks, 3)
	edited := session.Blocks[2]
	assert.Equal(t, call.ID, edited.ID)

	args := edited.Payload[turns.PayloadKeyArgs].(map[string]any)
	params, ok := args["parameters"].([]any)
	require.True(t, ok)
	require.Len(t, params, 1)
	assert.Equal(t, "Eze", params[0].(map[string]any)["player_name"])
	// untouched argument fields survive the rewrite
	assert.Equal(t, "both", args["endpoint"])

	assert.Equal(t, StateAwaitingAct, SessionState(session))
}

func TestApplyParameterEdit_DeletesStaleResult(t *testing.T) {
	session, _ := pendingSession()
	turns.AppendBlock(session, turns.NewToolUseBlock("call_1", "[Tool Error] player not found"))

	err := ApplyParameterEdit(session, `{"player_name":"Cole Palmer"}`, nil)
	require.NoError(t, err)

	require.Len(t, session.Blocks, 3)
	assert.Equal(t, turns.BlockKindToolCall, session.Blocks[2].Kind)
	assert.Equal(t, StateAwaitingAct, SessionState(session))
}

func TestApplyParameterEdit_MalformedJSONLeavesSessionUntouched(t *testing.T) {
	session, _ := pendingSession()
	before := session.Clone()

	err := ApplyParameterEdit(session, `{"player_name": `, nil)
	var malformed *MalformedFeedbackError
	require.ErrorAs(t, err, &malformed)

	assert.Equal(t, before.Blocks, session.Blocks)
	assert.Equal(t, StateAwaitingConfirm, SessionState(session))
}

func TestApplyParameterEdit_SchemaValidation(t *testing.T) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(`{
		"type": "object",
		"properties": {"player_name": {"type": "string"}},
		"required": ["player_name"]
	}`))
	require.NoError(t, err)

	session, _ := pendingSession()

	err = ApplyParameterEdit(session, `{"tournament_name":"La Liga"}`, schema)
	var malformed *MalformedFeedbackError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "player_name")
	assert.Equal(t, StateAwaitingConfirm, SessionState(session))

	err = ApplyParameterEdit(session, `{"player_name":"Vini Jr"}`, schema)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingAct, SessionState(session))
}
