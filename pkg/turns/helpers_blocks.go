package turns

import "github.com/google/uuid"

// Role string constants used for human roles in blocks.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Standard keys used in Block.Payload maps
const (
	PayloadKeyText   = "text"
	PayloadKeyID     = "id"
	PayloadKeyName   = "name"
	PayloadKeyArgs   = "args"
	PayloadKeyResult = "result"
)

// NewUserTextBlock returns a Block representing a user text message.
func NewUserTextBlock(text string) Block {
	return Block{
		ID:      uuid.NewString(),
		Kind:    BlockKindUser,
		Role:    RoleUser,
		Payload: map[string]any{PayloadKeyText: text},
	}
}

// NewAssistantTextBlock returns a Block representing assistant LLM text output.
func NewAssistantTextBlock(text string) Block {
	return Block{
		ID:      uuid.NewString(),
		Kind:    BlockKindLLMText,
		Role:    RoleAssistant,
		Payload: map[string]any{PayloadKeyText: text},
	}
}

// NewSystemTextBlock returns a Block representing a system directive.
func NewSystemTextBlock(text string) Block {
	return Block{
		ID:      uuid.NewString(),
		Kind:    BlockKindSystem,
		Role:    RoleSystem,
		Payload: map[string]any{PayloadKeyText: text},
	}
}

// NewToolCallBlock returns a Block requesting invocation of a tool.
// id correlates the call with its eventual tool_use result.
func NewToolCallBlock(id string, name string, args map[string]any) Block {
	return Block{
		ID:   id,
		Kind: BlockKindToolCall,
		Role: RoleAssistant,
		Payload: map[string]any{
			PayloadKeyID:   id,
			PayloadKeyName: name,
			PayloadKeyArgs: args,
		},
	}
}

// NewToolUseBlock returns a Block capturing the result of a tool execution.
// id must match the corresponding tool_call id.
func NewToolUseBlock(id string, result any) Block {
	return Block{
		ID:   uuid.NewString(),
		Kind: BlockKindToolUse,
		Payload: map[string]any{
			PayloadKeyID:     id,
			PayloadKeyResult: result,
		},
	}
}

// BlockText returns the text payload of a block, or the empty string when
// the block carries none.
func BlockText(b Block) string {
	if b.Payload == nil {
		return ""
	}
	s, _ := b.Payload[PayloadKeyText].(string)
	return s
}

// InsertBlockBeforeLast inserts the given block as the second-to-last entry
// in the turn. If the turn is empty, the block is appended normally.
func InsertBlockBeforeLast(t *Turn, b Block) {
	if t == nil {
		return
	}
	if len(t.Blocks) >= 1 {
		last := t.Blocks[len(t.Blocks)-1]
		t.Blocks = t.Blocks[:len(t.Blocks)-1]
		AppendBlock(t, b)
		AppendBlock(t, last)
		return
	}
	AppendBlock(t, b)
}

// UpsertBlockByID replaces the block whose ID matches b.ID in place,
// preserving its position. When no block matches, the block is appended.
// The replace-in-place semantics are what feedback editing relies on to
// amend a pending tool call without growing the history.
func UpsertBlockByID(t *Turn, b Block) {
	if t == nil {
		return
	}
	for i := range t.Blocks {
		if t.Blocks[i].ID == b.ID {
			t.Blocks[i] = b
			return
		}
	}
	AppendBlock(t, b)
}

// RemoveBlocksByID deletes every block whose ID is in ids and returns the
// number of removed blocks.
func RemoveBlocksByID(t *Turn, ids ...string) int {
	if t == nil || len(t.Blocks) == 0 || len(ids) == 0 {
		return 0
	}
	idSet := map[string]struct{}{}
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	kept := make([]Block, 0, len(t.Blocks))
	removed := 0
	for _, b := range t.Blocks {
		if _, match := idSet[b.ID]; match {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	t.Blocks = kept
	return removed
}

// LastBlockOfKind returns the most recent block of the given kind along with
// its index, or index -1 when none exists.
func LastBlockOfKind(t *Turn, kind BlockKind) (Block, int) {
	if t == nil {
		return Block{}, -1
	}
	for i := len(t.Blocks) - 1; i >= 0; i-- {
		if t.Blocks[i].Kind == kind {
			return t.Blocks[i], i
		}
	}
	return Block{}, -1
}
