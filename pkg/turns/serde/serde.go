package serde

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

// NormalizeTurn applies serde defaults (best-effort) without mutating order.
func NormalizeTurn(t *turns.Turn) {
	if t == nil {
		return
	}
	for i := range t.Blocks {
		b := &t.Blocks[i]
		if b.Payload == nil {
			b.Payload = map[string]any{}
		}
		// Synthesize assistant role for llm_text if missing
		if b.Kind == turns.BlockKindLLMText {
			if strings.TrimSpace(b.Role) == "" {
				b.Role = turns.RoleAssistant
			}
		}
	}
}

// ToYAML marshals a Turn to YAML using snake_case tags and BlockKind string enums.
func ToYAML(t *turns.Turn) ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	snapshot := *t
	NormalizeTurn(&snapshot)
	return yaml.Marshal(snapshot)
}

// FromYAML unmarshals a Turn from YAML.
func FromYAML(b []byte) (*turns.Turn, error) {
	var t turns.Turn
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	NormalizeTurn(&t)
	return &t, nil
}

// SaveTurnYAML writes a Turn to a YAML file.
func SaveTurnYAML(path string, t *turns.Turn) error {
	data, err := ToYAML(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadTurnYAML reads a Turn from a YAML file.
func LoadTurnYAML(path string) (*turns.Turn, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(b)
}
