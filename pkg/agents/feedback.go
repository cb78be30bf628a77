package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

// ParametersKey is the argument field every confirmable tool carries: a
// list of structured parameter objects, one per compared entity.
const ParametersKey = "parameters"

// MalformedFeedbackError signals that a submitted parameter edit could not
// be parsed or failed schema validation. Session state is left untouched
// so the confirmation prompt stays open.
type MalformedFeedbackError struct {
	Input  string
	Reason string
}

func (e *MalformedFeedbackError) Error() string {
	return fmt.Sprintf("malformed feedback: %s", e.Reason)
}

// PendingToolCall is a proposed tool invocation awaiting confirmation.
type PendingToolCall struct {
	BlockID   string
	CallID    string
	Name      string
	Arguments map[string]any
}

// ParametersJSON serializes the call's parameters field. The confirmation
// prompt surfaces the first parameter object alone when there is exactly
// one, matching what the caller is expected to edit.
func (p *PendingToolCall) ParametersJSON() (string, error) {
	params, ok := p.Arguments[ParametersKey]
	if !ok {
		b, err := json.Marshal(p.Arguments)
		return string(b), err
	}
	if list, ok := params.([]any); ok && len(list) == 1 {
		b, err := json.Marshal(list[0])
		return string(b), err
	}
	b, err := json.Marshal(params)
	return string(b), err
}

// FindPendingToolCall returns the first unexecuted tool call of the
// session, or nil when none is pending. A call counts as executed once a
// tool_use block references its call id. When the model proposes several
// calls at once they are confirmed in order.
func FindPendingToolCall(t *turns.Turn) *PendingToolCall {
	if t == nil {
		return nil
	}
	executed := map[string]struct{}{}
	for _, b := range t.Blocks {
		if b.Kind != turns.BlockKindToolUse {
			continue
		}
		if id, _ := b.Payload[turns.PayloadKeyID].(string); id != "" {
			executed[id] = struct{}{}
		}
	}
	for _, b := range t.Blocks {
		if b.Kind != turns.BlockKindToolCall {
			continue
		}
		callID, _ := b.Payload[turns.PayloadKeyID].(string)
		if _, done := executed[callID]; done {
			continue
		}
		name, _ := b.Payload[turns.PayloadKeyName].(string)
		args, _ := b.Payload[turns.PayloadKeyArgs].(map[string]any)
		return &PendingToolCall{
			BlockID:   b.ID,
			CallID:    callID,
			Name:      name,
			Arguments: args,
		}
	}
	return nil
}

// LastToolCall returns the most recent tool call of the session whether
// or not it has been executed, or nil when the session has none.
func LastToolCall(t *turns.Turn) *PendingToolCall {
	block, idx := turns.LastBlockOfKind(t, turns.BlockKindToolCall)
	if idx < 0 {
		return nil
	}
	callID, _ := block.Payload[turns.PayloadKeyID].(string)
	name, _ := block.Payload[turns.PayloadKeyName].(string)
	args, _ := block.Payload[turns.PayloadKeyArgs].(map[string]any)
	return &PendingToolCall{
		BlockID:   block.ID,
		CallID:    callID,
		Name:      name,
		Arguments: args,
	}
}

// AcceptPending abandons the pending tool call: the proposing tool_call
// blocks, any assistant text emitted alongside them, and the decide
// instruction preceding them are deleted, leaving
// the session positioned to re-run tool selection on the next input.
// Returns the number of deleted blocks.
func AcceptPending(t *turns.Turn) int {
	if t == nil {
		return 0
	}
	// only the trailing proposal group is rolled back; a stale error
	// result from a failed execution goes with it
	ids := trailingProposalIDs(t)
	if len(ids) > 0 {
		if b, idx := turns.LastBlockOfKind(t, turns.BlockKindSystem); idx >= 0 {
			ids = append(ids, b.ID)
		}
	}
	removed := turns.RemoveBlocksByID(t, ids...)
	SetSessionState(t, StateAwaitingDecide)
	return removed
}

func trailingProposalIDs(t *turns.Turn) []string {
	var ids []string
	sawCall := false
	for i := len(t.Blocks) - 1; i >= 0; i-- {
		kind := t.Blocks[i].Kind
		if kind == turns.BlockKindToolCall || kind == turns.BlockKindToolUse {
			if kind == turns.BlockKindToolCall {
				sawCall = true
			}
			ids = append(ids, t.Blocks[i].ID)
			continue
		}
		// assistant text emitted alongside the proposal belongs to it
		if kind == turns.BlockKindLLMText && sawCall {
			ids = append(ids, t.Blocks[i].ID)
		}
		break
	}
	return ids
}

// ApplyParameterEdit rewrites the pending tool call with the supplied
// replacement parameter object. The call's parameters field becomes a
// single-element list holding exactly the replacement, and the rewritten
// block keeps the original block identity (replace in place, no append).
// When the last block is already a tool result (second-pass correction
// after an execution), the stale result is deleted first.
//
// The raw edit must be a JSON object; when a schema is given it must also
// validate against it. Violations return MalformedFeedbackError without
// touching the session.
func ApplyParameterEdit(t *turns.Turn, rawEdit string, schema *gojsonschema.Schema) error {
	if t == nil {
		return errors.New("no session state")
	}

	var edit map[string]any
	if err := json.Unmarshal([]byte(rawEdit), &edit); err != nil {
		return &MalformedFeedbackError{Input: rawEdit, Reason: err.Error()}
	}
	if schema != nil {
		result, err := schema.Validate(gojsonschema.NewGoLoader(edit))
		if err != nil {
			return &MalformedFeedbackError{Input: rawEdit, Reason: err.Error()}
		}
		if !result.Valid() {
			var reasons []string
			for _, desc := range result.Errors() {
				reasons = append(reasons, desc.String())
			}
			return &MalformedFeedbackError{Input: rawEdit, Reason: strings.Join(reasons, "; ")}
		}
	}

	// A correction arriving after execution invalidates the stale result.
	if last, ok := turns.LastBlock(t); ok && last.Kind == turns.BlockKindToolUse {
		turns.RemoveBlocksByID(t, last.ID)
	}

	block, idx := turns.LastBlockOfKind(t, turns.BlockKindToolCall)
	if idx < 0 {
		return errors.New("no pending tool call to edit")
	}

	args := map[string]any{}
	for k, v := range block.Payload {
		if k == turns.PayloadKeyArgs {
			continue
		}
		args[k] = v
	}
	origArgs, _ := block.Payload[turns.PayloadKeyArgs].(map[string]any)
	newArgs := map[string]any{}
	for k, v := range origArgs {
		newArgs[k] = v
	}
	newArgs[ParametersKey] = []any{edit}

	updated := block
	updated.Payload = map[string]any{
		turns.PayloadKeyID:   block.Payload[turns.PayloadKeyID],
		turns.PayloadKeyName: block.Payload[turns.PayloadKeyName],
		turns.PayloadKeyArgs: newArgs,
	}
	turns.UpsertBlockByID(t, updated)

	SetSessionState(t, StateAwaitingAct)
	return nil
}
