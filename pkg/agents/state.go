package agents

import "github.com/go-go-golems/scoutgpt/pkg/turns"

// State is the persisted position of a sub-agent's state machine within
// one session. It is stored on the session Turn's metadata so resumption
// never depends on re-entering a paused execution engine.
type State string

const (
	// StateAwaitingDecide means the next step runs tool selection.
	StateAwaitingDecide State = "awaiting_decide"
	// StateAwaitingConfirm means tool calls were proposed and the agent
	// paused for human confirmation before executing them.
	StateAwaitingConfirm State = "awaiting_confirm"
	// StateAwaitingAct means confirmed or edited tool calls are ready to
	// execute (including re-entry after an in-band tool error).
	StateAwaitingAct State = "awaiting_act"
	// StateDone means the previous exchange completed with a final answer.
	StateDone State = "done"
)

const metadataKeyState = "agent_state"

// SessionState reads the persisted state from a session turn, defaulting
// to StateAwaitingDecide for fresh sessions.
func SessionState(t *turns.Turn) State {
	if t == nil || t.Metadata == nil {
		return StateAwaitingDecide
	}
	s, _ := t.Metadata[metadataKeyState].(string)
	switch State(s) {
	case StateAwaitingConfirm, StateAwaitingAct, StateDone:
		return State(s)
	default:
		return StateAwaitingDecide
	}
}

// SetSessionState persists the state on the session turn.
func SetSessionState(t *turns.Turn, s State) {
	if t == nil {
		return
	}
	if t.Metadata == nil {
		t.Metadata = map[string]any{}
	}
	t.Metadata[metadataKeyState] = string(s)
}
