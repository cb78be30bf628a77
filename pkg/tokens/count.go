package tokens

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/weaviate/tiktoken-go"

	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

// DefaultEncoding is the tokenizer encoding used for usage estimation.
// All the chat models we route to share cl100k_base.
const DefaultEncoding = "cl100k_base"

// Counter estimates token usage of conversational content. It is safe for
// concurrent use once constructed.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter returns a Counter backed by the default encoding.
func NewCounter() (*Counter, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, errors.Wrap(err, "initialize tiktoken encoding")
	}
	return &Counter{enc: enc}, nil
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

// BlockUsage returns the token count of a block's content. Tool calls
// contribute their serialized arguments and tool results their serialized
// result payload; tool output is routinely the bulk of a session's history
// and must count toward the trim budget.
func (c *Counter) BlockUsage(b turns.Block) int {
	total := c.Count(turns.BlockText(b))
	if b.Payload == nil {
		return total
	}
	switch b.Kind {
	case turns.BlockKindToolCall:
		total += c.Count(payloadString(b.Payload[turns.PayloadKeyArgs]))
	case turns.BlockKindToolUse:
		total += c.Count(payloadString(b.Payload[turns.PayloadKeyResult]))
	}
	return total
}

func payloadString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// TurnUsage sums token usage across all block contents of a turn.
func (c *Counter) TurnUsage(t *turns.Turn) int {
	if t == nil {
		return 0
	}
	total := 0
	for _, b := range t.Blocks {
		total += c.BlockUsage(b)
	}
	return total
}

// TrimPlan returns the IDs of the oldest whole blocks whose removal brings
// total usage back to at most threshold. It returns nil when usage is
// already within budget. Blocks are only ever selected from the front of
// the history; the final boundary block is included even when that removes
// slightly more than strictly necessary.
func (c *Counter) TrimPlan(t *turns.Turn, threshold int) []string {
	if t == nil {
		return nil
	}
	total := c.TurnUsage(t)
	if total <= threshold {
		return nil
	}

	removed := 0
	var ids []string
	for _, b := range t.Blocks {
		removed += c.BlockUsage(b)
		ids = append(ids, b.ID)
		if total-removed <= threshold {
			break
		}
	}
	return ids
}
