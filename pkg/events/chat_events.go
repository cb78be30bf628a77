package events

import (
	"encoding/json"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeRouted                  EventType = "routed"
	EventTypeToolCallExecute         EventType = "tool-call-execute"
	EventTypeToolCallExecutionResult EventType = "tool-call-execution-result"
	EventTypeConfirmationPending     EventType = "confirmation-pending"
	EventTypeFinal                   EventType = "final"
	EventTypeError                   EventType = "error"
)

// EventMetadata carries session correlation identifiers for an event.
type EventMetadata struct {
	ID        uuid.UUID `json:"message_id"`
	SessionID string    `json:"session_id,omitempty"`
	AgentName string    `json:"agent_name,omitempty"`
}

// withMessageID assigns a fresh message id unless the caller set one.
func withMessageID(m EventMetadata) EventMetadata {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return m
}

type Event interface {
	Type() EventType
	Metadata() EventMetadata
	Payload() []byte
}

type EventImpl struct {
	Type_     EventType     `json:"type"`
	Metadata_ EventMetadata `json:"meta,omitempty"`

	// raw payload if the event was deserialized from JSON, not further used
	payload []byte
}

func (e *EventImpl) Type() EventType {
	return e.Type_
}

func (e *EventImpl) Metadata() EventMetadata {
	return e.Metadata_
}

func (e *EventImpl) Payload() []byte {
	return e.payload
}

var _ Event = &EventImpl{}

// EventRouted signals that the router selected a sub-agent for an utterance.
type EventRouted struct {
	EventImpl
	AgentName string `json:"agent_name"`
}

func NewRoutedEvent(metadata EventMetadata, agentName string) *EventRouted {
	return &EventRouted{
		EventImpl: EventImpl{Type_: EventTypeRouted, Metadata_: withMessageID(metadata)},
		AgentName: agentName,
	}
}

var _ Event = &EventRouted{}

type ToolCall struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input string `json:"input"`
}

type ToolResult struct {
	ID     string `json:"id"`
	Result string `json:"result"`
}

// EventToolCallExecute captures the intent to execute a tool locally.
type EventToolCallExecute struct {
	EventImpl
	ToolCall ToolCall `json:"tool_call"`
}

func NewToolCallExecuteEvent(metadata EventMetadata, toolCall ToolCall) *EventToolCallExecute {
	return &EventToolCallExecute{
		EventImpl: EventImpl{Type_: EventTypeToolCallExecute, Metadata_: withMessageID(metadata)},
		ToolCall:  toolCall,
	}
}

var _ Event = &EventToolCallExecute{}

// EventToolCallExecutionResult captures the result of executing a tool locally.
type EventToolCallExecutionResult struct {
	EventImpl
	ToolResult ToolResult `json:"tool_result"`
}

func NewToolCallExecutionResultEvent(metadata EventMetadata, toolResult ToolResult) *EventToolCallExecutionResult {
	return &EventToolCallExecutionResult{
		EventImpl:  EventImpl{Type_: EventTypeToolCallExecutionResult, Metadata_: withMessageID(metadata)},
		ToolResult: toolResult,
	}
}

var _ Event = &EventToolCallExecutionResult{}

// EventConfirmationPending signals that a sub-agent paused before tool
// execution and is waiting for human confirmation of the parameters.
type EventConfirmationPending struct {
	EventImpl
	ToolCall   ToolCall `json:"tool_call"`
	Parameters string   `json:"parameters"`
}

func NewConfirmationPendingEvent(metadata EventMetadata, toolCall ToolCall, parameters string) *EventConfirmationPending {
	return &EventConfirmationPending{
		EventImpl:  EventImpl{Type_: EventTypeConfirmationPending, Metadata_: withMessageID(metadata)},
		ToolCall:   toolCall,
		Parameters: parameters,
	}
}

var _ Event = &EventConfirmationPending{}

// EventFinal carries the final answer text of one exchange.
type EventFinal struct {
	EventImpl
	Text string `json:"text"`
}

func NewFinalEvent(metadata EventMetadata, text string) *EventFinal {
	return &EventFinal{
		EventImpl: EventImpl{Type_: EventTypeFinal, Metadata_: withMessageID(metadata)},
		Text:      text,
	}
}

var _ Event = &EventFinal{}

type EventError struct {
	EventImpl
	ErrorString string `json:"error_string"`
}

func NewErrorEvent(metadata EventMetadata, err error) *EventError {
	return &EventError{
		EventImpl:   EventImpl{Type_: EventTypeError, Metadata_: withMessageID(metadata)},
		ErrorString: err.Error(),
	}
}

var _ Event = &EventError{}

// MarshalEvent serializes an event for transport. The concrete struct is
// marshaled so the type-specific fields survive.
func MarshalEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}
