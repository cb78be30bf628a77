package tools

import (
	"time"

	"github.com/mb0/glob"
)

// ToolConfig specifies how tools are exposed and executed for one agent.
type ToolConfig struct {
	Enabled          bool          `json:"enabled"`
	ToolChoice       ToolChoice    `json:"tool_choice"`
	ExecutionTimeout time.Duration `json:"execution_timeout"`
	// AllowedTools holds glob patterns; nil means every tool is allowed.
	AllowedTools []string `json:"allowed_tools"`
}

// DefaultToolConfig returns a sensible default configuration.
func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		Enabled:          true,
		ToolChoice:       ToolChoiceAuto,
		ExecutionTimeout: 30 * time.Second,
		AllowedTools:     nil,
	}
}

func (tc ToolConfig) WithEnabled(enabled bool) ToolConfig {
	tc.Enabled = enabled
	return tc
}

func (tc ToolConfig) WithToolChoice(choice ToolChoice) ToolConfig {
	tc.ToolChoice = choice
	return tc
}

func (tc ToolConfig) WithExecutionTimeout(timeout time.Duration) ToolConfig {
	tc.ExecutionTimeout = timeout
	return tc
}

func (tc ToolConfig) WithAllowedTools(patterns []string) ToolConfig {
	tc.AllowedTools = patterns
	return tc
}

// ToolChoice defines how the model should choose tools.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

// IsToolAllowed checks a tool name against the allowed glob patterns.
func (tc *ToolConfig) IsToolAllowed(toolName string) bool {
	if tc.AllowedTools == nil {
		return true
	}
	for _, pattern := range tc.AllowedTools {
		if matching, err := glob.Match(pattern, toolName); err == nil && matching {
			return true
		}
	}
	return false
}

// FilterTools returns only the tools allowed by this configuration.
func (tc *ToolConfig) FilterTools(tools []ToolDefinition) []ToolDefinition {
	if tc.AllowedTools == nil {
		return tools
	}
	filtered := make([]ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		if tc.IsToolAllowed(tool.Name) {
			filtered = append(filtered, tool)
		}
	}
	return filtered
}
