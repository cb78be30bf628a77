package agents

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/go-go-golems/scoutgpt/pkg/events"
	"github.com/go-go-golems/scoutgpt/pkg/inference/engine"
	"github.com/go-go-golems/scoutgpt/pkg/inference/tools"
	"github.com/go-go-golems/scoutgpt/pkg/tokens"
	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

// DefaultTrimThreshold is the token budget above which old history is
// deleted from the front of a session.
const DefaultTrimThreshold = 1000

// SubAgent is one independently configured decide/act/respond state
// machine specialized for a question domain. It is stateless across
// sessions; all per-session state lives on the session Turn.
type SubAgent struct {
	name          string
	decideEngine  engine.Engine
	respondEngine engine.Engine
	registry      tools.ToolRegistry
	executor      tools.ToolExecutor
	decidePrompt  string
	respondPrompt string
	interrupt     bool
	editSchema    *gojsonschema.Schema
	counter       *tokens.Counter
	trimThreshold int
}

type SubAgentOption func(*SubAgent) error

// WithInterruption makes the agent pause for confirmation between
// proposing tool calls and executing them.
func WithInterruption() SubAgentOption {
	return func(a *SubAgent) error {
		a.interrupt = true
		return nil
	}
}

// WithRespondEngine sets a dedicated engine for the respond step. When
// unset, the decide engine is reused.
func WithRespondEngine(eng engine.Engine) SubAgentOption {
	return func(a *SubAgent) error {
		a.respondEngine = eng
		return nil
	}
}

// WithToolRegistry attaches the agent's callable tools and executor.
func WithToolRegistry(registry tools.ToolRegistry, executor tools.ToolExecutor) SubAgentOption {
	return func(a *SubAgent) error {
		a.registry = registry
		a.executor = executor
		return nil
	}
}

// WithEditSchema validates parameter edits against a JSON schema before
// they are applied.
func WithEditSchema(schemaJSON string) SubAgentOption {
	return func(a *SubAgent) error {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
		if err != nil {
			return errors.Wrap(err, "compile edit schema")
		}
		a.editSchema = schema
		return nil
	}
}

// WithTrimThreshold overrides the token budget for history trimming.
func WithTrimThreshold(threshold int) SubAgentOption {
	return func(a *SubAgent) error {
		a.trimThreshold = threshold
		return nil
	}
}

// NewSubAgent builds a sub-agent. decidePrompt is injected before the
// final turn during tool selection; respondPrompt is appended before
// answer generation.
func NewSubAgent(
	name string,
	decideEngine engine.Engine,
	decidePrompt string,
	respondPrompt string,
	options ...SubAgentOption,
) (*SubAgent, error) {
	if name == "" {
		return nil, errors.New("sub-agent requires a name")
	}
	if decideEngine == nil {
		return nil, errors.New("sub-agent requires a decide engine")
	}
	counter, err := tokens.NewCounter()
	if err != nil {
		return nil, err
	}
	a := &SubAgent{
		name:          name,
		decideEngine:  decideEngine,
		respondEngine: decideEngine,
		decidePrompt:  decidePrompt,
		respondPrompt: respondPrompt,
		counter:       counter,
		trimThreshold: DefaultTrimThreshold,
	}
	for _, opt := range options {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *SubAgent) Name() string {
	return a.name
}

// EditSchema returns the schema parameter edits are validated against,
// or nil when the agent accepts any JSON object.
func (a *SubAgent) EditSchema() *gojsonschema.Schema {
	return a.editSchema
}

// StepResult is the outcome of advancing the state machine by one
// externally visible step.
type StepResult struct {
	State State
	// Text is the final answer, or the verbatim tool error content when
	// execution failed and the machine stayed in the act state.
	Text string
	// PendingCall and Parameters are set when the agent paused for
	// confirmation; Parameters is the first call's parameters as JSON.
	PendingCall *PendingToolCall
	Parameters  string
}

// Step advances the state machine. A non-empty utterance is appended as
// a new user turn first; resume paths pass the empty string. The session
// turn is mutated in place; the caller persists it.
func (a *SubAgent) Step(ctx context.Context, t *turns.Turn, utterance string) (*StepResult, error) {
	if t == nil {
		return nil, errors.New("no session state")
	}
	state := SessionState(t)
	log.Debug().Str("agent", a.name).Str("state", string(state)).Msg("sub-agent step")

	if state == StateAwaitingConfirm {
		// A confirmation left unresolved is abandoned. Roll the proposal
		// back before the new input lands so the trailing blocks are still
		// the proposal group.
		AcceptPending(t)
		state = StateAwaitingDecide
	}

	if utterance != "" {
		turns.AppendBlock(t, turns.NewUserTextBlock(utterance))
	}

	if state == StateAwaitingAct {
		return a.act(ctx, t)
	}
	return a.decide(ctx, t)
}

func (a *SubAgent) decide(ctx context.Context, t *turns.Turn) (*StepResult, error) {
	if a.decidePrompt != "" {
		turns.InsertBlockBeforeLast(t, turns.NewSystemTextBlock(a.decidePrompt))
	}

	if _, err := a.decideEngine.RunInference(ctx, t); err != nil {
		return nil, errors.Wrap(err, "decide inference")
	}

	pending := FindPendingToolCall(t)
	if pending == nil {
		return a.respond(ctx, t)
	}

	if a.interrupt {
		params, err := pending.ParametersJSON()
		if err != nil {
			return nil, errors.Wrap(err, "serialize pending parameters")
		}
		SetSessionState(t, StateAwaitingConfirm)
		events.PublishEventToContext(ctx, events.NewConfirmationPendingEvent(
			events.EventMetadata{SessionID: t.ID, AgentName: a.name},
			events.ToolCall{ID: pending.CallID, Name: pending.Name, Input: params},
			params,
		))
		return &StepResult{
			State:       StateAwaitingConfirm,
			PendingCall: pending,
			Parameters:  params,
		}, nil
	}

	return a.act(ctx, t)
}

func (a *SubAgent) act(ctx context.Context, t *turns.Turn) (*StepResult, error) {
	calls := a.pendingCalls(t)

	if len(calls) == 0 {
		// The proposing turn was deleted out from under us; answer from
		// what history remains.
		return a.respond(ctx, t)
	}

	if a.executor == nil || a.registry == nil {
		return nil, errors.New("sub-agent has no tool executor configured")
	}

	results, err := a.executor.ExecuteToolCalls(ctx, calls, a.registry)
	if err != nil {
		return nil, errors.Wrap(err, "execute tool calls")
	}
	lastContent := ""
	for _, r := range results {
		turns.AppendBlock(t, turns.NewToolUseBlock(r.ID, r.Content))
		lastContent = r.Content
	}

	if tools.IsErrorResult(lastContent) {
		// Stay in the act state; the caller surfaces the error content and
		// the human edits the arguments before we retry.
		SetSessionState(t, StateAwaitingAct)
		return &StepResult{
			State: StateAwaitingAct,
			Text:  lastContent,
		}, nil
	}

	return a.respond(ctx, t)
}

// pendingCalls collects proposed tool calls that have no matching result
// yet, in proposal order.
func (a *SubAgent) pendingCalls(t *turns.Turn) []tools.ToolCall {
	executed := map[string]bool{}
	for _, b := range t.Blocks {
		if b.Kind == turns.BlockKindToolUse {
			if id, _ := b.Payload[turns.PayloadKeyID].(string); id != "" {
				executed[id] = true
			}
		}
	}
	var calls []tools.ToolCall
	for _, b := range t.Blocks {
		if b.Kind != turns.BlockKindToolCall {
			continue
		}
		id, _ := b.Payload[turns.PayloadKeyID].(string)
		if executed[id] {
			continue
		}
		name, _ := b.Payload[turns.PayloadKeyName].(string)
		args, _ := b.Payload[turns.PayloadKeyArgs].(map[string]any)
		argsJSON, err := json.Marshal(args)
		if err != nil {
			argsJSON = []byte("{}")
		}
		calls = append(calls, tools.ToolCall{ID: id, Name: name, Arguments: argsJSON})
	}
	return calls
}

func (a *SubAgent) respond(ctx context.Context, t *turns.Turn) (*StepResult, error) {
	if a.respondPrompt != "" {
		turns.AppendBlock(t, turns.NewSystemTextBlock(a.respondPrompt))
	}

	if _, err := a.respondEngine.RunInference(ctx, t); err != nil {
		return nil, errors.Wrap(err, "respond inference")
	}

	text := ""
	if b, idx := turns.LastBlockOfKind(t, turns.BlockKindLLMText); idx >= 0 {
		text = turns.BlockText(b)
	}

	SetSessionState(t, StateDone)
	a.Trim(t)

	events.PublishEventToContext(ctx, events.NewFinalEvent(
		events.EventMetadata{SessionID: t.ID, AgentName: a.name},
		text,
	))
	return &StepResult{State: StateDone, Text: text}, nil
}

// Trim deletes whole turns from the oldest end of the session until token
// usage is back at or below the configured threshold.
func (a *SubAgent) Trim(t *turns.Turn) int {
	ids := a.counter.TrimPlan(t, a.trimThreshold)
	if len(ids) == 0 {
		return 0
	}
	removed := turns.RemoveBlocksByID(t, ids...)
	log.Debug().Str("agent", a.name).Int("removed", removed).Msg("trimmed session history")
	return removed
}
