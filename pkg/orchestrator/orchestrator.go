package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/scoutgpt/pkg/agents"
	"github.com/go-go-golems/scoutgpt/pkg/events"
	"github.com/go-go-golems/scoutgpt/pkg/router"
)

// FeedbackState tracks an open confirmation round-trip for one session.
// It exists only between the confirmation prompt and its resolution.
type FeedbackState struct {
	Pending        bool
	PendingCall    *agents.PendingToolCall
	ActiveSubAgent string
}

// Reply is what one orchestrated exchange hands back to the caller.
type Reply struct {
	Text string
	// AwaitingConfirmation is set when the reply is a confirmation prompt
	// rather than a final answer; Parameters then carries the proposed
	// tool parameters as JSON for the caller to accept or edit.
	AwaitingConfirmation bool
	Parameters           string
}

// Orchestrator routes each incoming message to a sub-agent, drives the
// chosen agent through one exchange, and manages open confirmations.
type Orchestrator struct {
	router *router.Router
	agents map[string]*agents.SubAgent
	store  agents.SessionStore

	mu       sync.Mutex
	feedback map[string]*FeedbackState
}

func New(r *router.Router, agentList []*agents.SubAgent, store agents.SessionStore) (*Orchestrator, error) {
	if r == nil {
		return nil, errors.New("orchestrator requires a router")
	}
	if store == nil {
		store = agents.NewInMemorySessionStore()
	}
	byName := make(map[string]*agents.SubAgent, len(agentList))
	for _, a := range agentList {
		if _, dup := byName[a.Name()]; dup {
			return nil, errors.Errorf("duplicate sub-agent name: %s", a.Name())
		}
		byName[a.Name()] = a
	}
	for _, name := range r.Agents() {
		if _, ok := byName[name]; !ok {
			return nil, errors.Errorf("router references unknown sub-agent: %s", name)
		}
	}
	return &Orchestrator{
		router:   r,
		agents:   byName,
		store:    store,
		feedback: make(map[string]*FeedbackState),
	}, nil
}

// Store exposes the session store, e.g. to preload a saved session.
func (o *Orchestrator) Store() agents.SessionStore {
	return o.store
}

// Feedback returns the feedback state for a session, creating it empty.
func (o *Orchestrator) Feedback(sessionID string) *FeedbackState {
	o.mu.Lock()
	defer o.mu.Unlock()
	fs, ok := o.feedback[sessionID]
	if !ok {
		fs = &FeedbackState{}
		o.feedback[sessionID] = fs
	}
	return fs
}

// ProcessMessage handles one utterance for a session. While a
// confirmation is open the utterance is interpreted as feedback (empty
// string accepts, a JSON object edits); otherwise the message is routed
// and the chosen sub-agent runs one exchange.
func (o *Orchestrator) ProcessMessage(ctx context.Context, sessionID string, utterance string) (*Reply, error) {
	if fs := o.Feedback(sessionID); fs.Pending {
		return o.UpdateToolParameters(ctx, sessionID, utterance)
	}

	agentName, err := o.router.Route(ctx, utterance)
	if err != nil {
		return nil, err
	}
	events.PublishEventToContext(ctx, events.NewRoutedEvent(
		events.EventMetadata{SessionID: sessionID},
		agentName,
	))

	agent := o.agents[agentName]
	t, err := o.store.Get(sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}

	result, err := agent.Step(ctx, t, utterance)
	if err != nil {
		return nil, err
	}
	if err := o.store.Update(sessionID, t); err != nil {
		return nil, errors.Wrap(err, "persist session")
	}

	if result.State == agents.StateAwaitingConfirm {
		fs := o.Feedback(sessionID)
		fs.Pending = true
		fs.PendingCall = result.PendingCall
		fs.ActiveSubAgent = agentName
		return &Reply{
			Text:                 confirmationPrompt(result.Parameters),
			AwaitingConfirmation: true,
			Parameters:           result.Parameters,
		}, nil
	}

	return &Reply{Text: result.Text}, nil
}

// UpdateToolParameters resolves an open confirmation. An empty edit
// accepts by abandoning the proposal (the pending agent turn and its
// preceding system turn are deleted; the next message re-runs tool
// selection from scratch). A JSON object replaces the call's parameters
// and resumes execution. Malformed JSON leaves the prompt open.
func (o *Orchestrator) UpdateToolParameters(ctx context.Context, sessionID string, rawEdit string) (*Reply, error) {
	fs := o.Feedback(sessionID)
	if !fs.Pending {
		return nil, errors.New("no confirmation pending for session")
	}
	agent, ok := o.agents[fs.ActiveSubAgent]
	if !ok {
		return nil, errors.Errorf("pending confirmation references unknown sub-agent: %s", fs.ActiveSubAgent)
	}

	t, err := o.store.Get(sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}

	if strings.TrimSpace(rawEdit) == "" {
		removed := agents.AcceptPending(t)
		if err := o.store.Update(sessionID, t); err != nil {
			return nil, errors.Wrap(err, "persist session")
		}
		fs.Pending = false
		fs.PendingCall = nil
		fs.ActiveSubAgent = ""
		log.Debug().Str("session_id", sessionID).Int("removed", removed).Msg("confirmation abandoned")
		return &Reply{Text: "Okay, discarded the proposed lookup. What would you like to know?"}, nil
	}

	if err := agents.ApplyParameterEdit(t, rawEdit, agent.EditSchema()); err != nil {
		var malformed *agents.MalformedFeedbackError
		if errors.As(err, &malformed) {
			// session untouched, prompt stays open
			return &Reply{
				Text:                 fmt.Sprintf("Could not parse the edited parameters (%s). Please send a JSON object, or an empty message to discard.", malformed.Reason),
				AwaitingConfirmation: true,
				Parameters:           currentParameters(fs),
			}, nil
		}
		return nil, err
	}

	result, err := agent.Step(ctx, t, "")
	if err != nil {
		return nil, err
	}
	if err := o.store.Update(sessionID, t); err != nil {
		return nil, errors.Wrap(err, "persist session")
	}

	if result.State == agents.StateAwaitingAct {
		// tool failed in-band; keep the confirmation open on the updated
		// call so the next message can edit again
		if call := agents.LastToolCall(t); call != nil {
			fs.PendingCall = call
		}
		return &Reply{
			Text:                 result.Text,
			AwaitingConfirmation: true,
			Parameters:           currentParameters(fs),
		}, nil
	}

	fs.Pending = false
	fs.PendingCall = nil
	fs.ActiveSubAgent = ""
	return &Reply{Text: result.Text}, nil
}

func confirmationPrompt(parameters string) string {
	return fmt.Sprintf(
		"I am about to look up data with the following parameters:\n%s\nReply with an empty message to discard, or send a JSON object to adjust them.",
		parameters,
	)
}

func currentParameters(fs *FeedbackState) string {
	if fs.PendingCall == nil {
		return ""
	}
	params, err := fs.PendingCall.ParametersJSON()
	if err != nil {
		return ""
	}
	return params
}
