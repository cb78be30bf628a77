package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/scoutgpt/pkg/agents"
	"github.com/go-go-golems/scoutgpt/pkg/inference/tools"
	"github.com/go-go-golems/scoutgpt/pkg/router"
	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

// labelEngine classifies everything into one fixed label.
type labelEngine struct {
	label string
}

func (e *labelEngine) RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error) {
	turns.AppendBlock(t, turns.NewAssistantTextBlock(e.label))
	return t, nil
}

// scriptedEngine replays a list of turn mutations, one per inference call.
type scriptedEngine struct {
	adders    []func(*turns.Turn)
	callCount int
}

func (e *scriptedEngine) RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error) {
	if e.callCount >= len(e.adders) {
		return nil, fmt.Errorf("no more scripted responses")
	}
	adder := e.adders[e.callCount]
	e.callCount++
	if adder != nil {
		adder(t)
	}
	return t, nil
}

type seasonArgs struct {
	Parameters []struct {
		PlayerName string `json:"player_name"`
	} `json:"parameters"`
}

// fixture wires an orchestrator with one interrupting player agent whose
// lookup tool resolves through lookupFn.
func fixture(t *testing.T, decide *scriptedEngine, respond *scriptedEngine, lookupFn func(seasonArgs) (string, error)) (*Orchestrator, *[]seasonArgs) {
	t.Helper()

	var seen []seasonArgs
	registry := tools.NewInMemoryToolRegistry()
	def, err := tools.NewToolFromFunc("obtain_season_performance_data", "season lookup",
		func(in seasonArgs) (string, error) {
			seen = append(seen, in)
			return lookupFn(in)
		})
	require.NoError(t, err)
	require.NoError(t, registry.RegisterTool(def.Name, *def))

	agent, err := agents.NewSubAgent("analyze-player", decide, "decide instruction", "respond instruction",
		agents.WithInterruption(),
		agents.WithRespondEngine(respond),
		agents.WithToolRegistry(registry, tools.NewDefaultToolExecutor(tools.DefaultToolConfig())),
	)
	require.NoError(t, err)

	r, err := router.NewRouter(&labelEngine{label: "analyze-player"}, []string{"analyze-player"})
	require.NoError(t, err)

	orch, err := New(r, []*agents.SubAgent{agent}, agents.NewInMemorySessionStore())
	require.NoError(t, err)
	return orch, &seen
}

func proposeLookup(callID, player string) func(*turns.Turn) {
	return func(t *turns.Turn) {
		turns.AppendBlock(t, turns.NewToolCallBlock(callID, "obtain_season_performance_data", map[string]any{
			"parameters": []any{map[string]any{"player_name": player}},
		}))
	}
}

func TestProcessMessage_ConfirmationRoundTrip(t *testing.T) {
	decide := &scriptedEngine{adders: []func(*turns.Turn){proposeLookup("call_1", "Cole Palmer")}}
	respond := &scriptedEngine{adders: []func(*turns.Turn){func(t *turns.Turn) {
		turns.AppendBlock(t, turns.NewAssistantTextBlock("Palmer had a great season."))
	}}}
	orch, seen := fixture(t, decide, respond, func(in seasonArgs) (string, error) {
		return `[{"goals": 22}]`, nil
	})

	reply, err := orch.ProcessMessage(context.Background(), "s1", "how did Palmer do this season?")
	require.NoError(t, err)

	assert.True(t, reply.AwaitingConfirmation)
	assert.JSONEq(t, `{"player_name":"Cole Palmer"}`, reply.Parameters)
	// confirmation means nothing has been executed yet
	assert.Empty(t, *seen)

	// empty feedback accepts by discarding the proposal
	reply, err = orch.ProcessMessage(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.False(t, reply.AwaitingConfirmation)
	assert.Empty(t, *seen)
	assert.False(t, orch.Feedback("s1").Pending)
}

func TestProcessMessage_EditResumesExecution(t *testing.T) {
	decide := &scriptedEngine{adders: []func(*turns.Turn){proposeLookup("call_1", "Cole Palmr")}}
	respond := &scriptedEngine{adders: []func(*turns.Turn){func(t *turns.Turn) {
		turns.AppendBlock(t, turns.NewAssistantTextBlock("22 goals across all competitions."))
	}}}
	orch, seen := fixture(t, decide, respond, func(in seasonArgs) (string, error) {
		return `[{"goals": 22}]`, nil
	})

	reply, err := orch.ProcessMessage(context.Background(), "s1", "how did Palmer do?")
	require.NoError(t, err)
	require.True(t, reply.AwaitingConfirmation)

	// correct the typo in the proposed parameters
	reply, err = orch.ProcessMessage(context.Background(), "s1", `{"player_name":"Cole Palmer"}`)
	require.NoError(t, err)

	assert.False(t, reply.AwaitingConfirmation)
	assert.Equal(t, "22 goals across all competitions.", reply.Text)
	require.Len(t, *seen, 1)
	require.Len(t, (*seen)[0].Parameters, 1)
	assert.Equal(t, "Cole Palmer", (*seen)[0].Parameters[0].PlayerName)
	assert.False(t, orch.Feedback("s1").Pending)
}

func TestProcessMessage_MalformedEditKeepsPromptOpen(t *testing.T) {
	decide := &scriptedEngine{adders: []func(*turns.Turn){proposeLookup("call_1", "Saka")}}
	respond := &scriptedEngine{adders: []func(*turns.Turn){func(t *turns.Turn) {
		turns.AppendBlock(t, turns.NewAssistantTextBlock("answer"))
	}}}
	orch, seen := fixture(t, decide, respond, func(in seasonArgs) (string, error) {
		return `[]`, nil
	})

	_, err := orch.ProcessMessage(context.Background(), "s1", "how did Saka do?")
	require.NoError(t, err)

	reply, err := orch.ProcessMessage(context.Background(), "s1", `{"player_name": oops}`)
	require.NoError(t, err)

	assert.True(t, reply.AwaitingConfirmation)
	assert.Contains(t, reply.Text, "Could not parse")
	assert.JSONEq(t, `{"player_name":"Saka"}`, reply.Parameters)
	assert.Empty(t, *seen)
	assert.True(t, orch.Feedback("s1").Pending)

	// a valid edit afterwards still goes through
	reply, err = orch.ProcessMessage(context.Background(), "s1", `{"player_name":"Bukayo Saka"}`)
	require.NoError(t, err)
	assert.False(t, reply.AwaitingConfirmation)
	require.Len(t, *seen, 1)
	assert.Equal(t, "Bukayo Saka", (*seen)[0].Parameters[0].PlayerName)
}

func TestProcessMessage_ToolErrorReturnedVerbatim(t *testing.T) {
	decide := &scriptedEngine{adders: []func(*turns.Turn){proposeLookup("call_1", "Nobody")}}
	respond := &scriptedEngine{adders: []func(*turns.Turn){func(t *turns.Turn) {
		turns.AppendBlock(t, turns.NewAssistantTextBlock("found him this time"))
	}}}

	calls := 0
	orch, _ := fixture(t, decide, respond, func(in seasonArgs) (string, error) {
		calls++
		if calls == 1 {
			b, _ := json.Marshal([]map[string]any{{"error": map[string]any{"message": "404", "parameter": "player_name", "value": in.Parameters[0].PlayerName}}})
			return tools.ErrorResultf("%s", string(b)), nil
		}
		return `[{"goals": 5}]`, nil
	})

	_, err := orch.ProcessMessage(context.Background(), "s1", "how did Nobody do?")
	require.NoError(t, err)

	// confirm the (doomed) proposal with an edit; the lookup 404s
	reply, err := orch.ProcessMessage(context.Background(), "s1", `{"player_name":"Nobody"}`)
	require.NoError(t, err)

	assert.True(t, reply.AwaitingConfirmation)
	assert.True(t, tools.IsErrorResult(reply.Text))
	assert.Contains(t, reply.Text, `"404"`)
	assert.True(t, orch.Feedback("s1").Pending)

	// the corrective edit replaces the stale result and succeeds
	reply, err = orch.ProcessMessage(context.Background(), "s1", `{"player_name":"Somebody"}`)
	require.NoError(t, err)
	assert.False(t, reply.AwaitingConfirmation)
	assert.Equal(t, "found him this time", reply.Text)
	assert.Equal(t, 2, calls)
}

func TestProcessMessage_AcceptThenNewQuestionRedecides(t *testing.T) {
	decide := &scriptedEngine{adders: []func(*turns.Turn){
		proposeLookup("call_1", "Saka"),
		proposeLookup("call_2", "Rice"),
	}}
	respond := &scriptedEngine{adders: []func(*turns.Turn){func(t *turns.Turn) {
		turns.AppendBlock(t, turns.NewAssistantTextBlock("answer"))
	}}}
	orch, _ := fixture(t, decide, respond, func(in seasonArgs) (string, error) {
		return `[]`, nil
	})

	_, err := orch.ProcessMessage(context.Background(), "s1", "how did Saka do?")
	require.NoError(t, err)
	_, err = orch.ProcessMessage(context.Background(), "s1", "")
	require.NoError(t, err)

	// next message runs a fresh decide, yielding a fresh proposal
	reply, err := orch.ProcessMessage(context.Background(), "s1", "how did Rice do?")
	require.NoError(t, err)
	assert.True(t, reply.AwaitingConfirmation)
	assert.JSONEq(t, `{"player_name":"Rice"}`, reply.Parameters)
	assert.Equal(t, 2, decide.callCount)
}

func TestNew_ValidatesWiring(t *testing.T) {
	r, err := router.NewRouter(&labelEngine{label: "x"}, []string{"missing-agent"})
	require.NoError(t, err)

	_, err = New(r, nil, agents.NewInMemorySessionStore())
	assert.Error(t, err)

	_, err = New(nil, nil, nil)
	assert.Error(t, err)
}
