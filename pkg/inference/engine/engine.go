package engine

import (
	"context"

	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

// Engine is the interface for LLM inference engines operating on Turns.
// Implementations read the block history of the given Turn, perform one
// model invocation, and return the Turn with the model's output appended
// as llm_text and/or tool_call blocks. Engines never execute tools.
type Engine interface {
	RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error)
}
