package turns

// BlockKind is the closed set of message-equivalent units that can appear
// in a session history.
type BlockKind string

const (
	// BlockKindUser is a human utterance.
	BlockKindUser BlockKind = "user"
	// BlockKindLLMText is assistant-generated text.
	BlockKindLLMText BlockKind = "llm_text"
	// BlockKindSystem is an instruction injected before a model invocation.
	BlockKindSystem BlockKind = "system"
	// BlockKindToolCall is a proposed tool invocation awaiting execution.
	BlockKindToolCall BlockKind = "tool_call"
	// BlockKindToolUse is the result of executing a tool call.
	BlockKindToolUse BlockKind = "tool_use"
)

// Block represents a single atomic unit within a Turn.
type Block struct {
	ID      string         `yaml:"id,omitempty" json:"id,omitempty"`
	Kind    BlockKind      `yaml:"kind" json:"kind"`
	Role    string         `yaml:"role,omitempty" json:"role,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty" json:"payload,omitempty"`
	// Metadata stores arbitrary metadata about the block
	Metadata map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Turn contains the ordered block history of one session plus associated
// metadata. One session maps to exactly one Turn; every exchange appends
// or rewrites blocks in place.
type Turn struct {
	ID     string  `yaml:"id,omitempty" json:"id,omitempty"`
	Blocks []Block `yaml:"blocks" json:"blocks"`
	// Metadata stores arbitrary metadata about the turn
	Metadata map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Clone returns a deep copy of the Turn suitable for mutation without
// affecting the original. Payload and metadata maps are copied one level
// deep; reference-typed values inside remain shared.
func (t *Turn) Clone() *Turn {
	if t == nil {
		return nil
	}
	out := &Turn{ID: t.ID}
	if t.Metadata != nil {
		out.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	if len(t.Blocks) == 0 {
		return out
	}
	out.Blocks = make([]Block, len(t.Blocks))
	for i := range t.Blocks {
		b := t.Blocks[i]
		if b.Payload != nil {
			cp := make(map[string]any, len(b.Payload))
			for k, v := range b.Payload {
				cp[k] = v
			}
			b.Payload = cp
		}
		if b.Metadata != nil {
			cp := make(map[string]any, len(b.Metadata))
			for k, v := range b.Metadata {
				cp[k] = v
			}
			b.Metadata = cp
		}
		out.Blocks[i] = b
	}
	return out
}

// AppendBlock appends a Block to a Turn.
func AppendBlock(t *Turn, b Block) {
	t.Blocks = append(t.Blocks, b)
}

// AppendBlocks appends multiple Blocks preserving order.
func AppendBlocks(t *Turn, blocks ...Block) {
	for _, b := range blocks {
		AppendBlock(t, b)
	}
}

// PrependBlock inserts a block at the beginning of the Turn's block slice.
func PrependBlock(t *Turn, b Block) {
	if t == nil {
		return
	}
	t.Blocks = append([]Block{b}, t.Blocks...)
}

// LastBlock returns the final block of the turn, or false when the turn is
// empty.
func LastBlock(t *Turn) (Block, bool) {
	if t == nil || len(t.Blocks) == 0 {
		return Block{}, false
	}
	return t.Blocks[len(t.Blocks)-1], true
}

// FindLastBlocksByKind returns blocks of the requested kinds in history order.
func FindLastBlocksByKind(t Turn, kinds ...BlockKind) []Block {
	lookup := map[BlockKind]bool{}
	for _, k := range kinds {
		lookup[k] = true
	}
	ret := make([]Block, 0, len(t.Blocks))
	for _, b := range t.Blocks {
		if lookup[b.Kind] {
			ret = append(ret, b)
		}
	}
	return ret
}
