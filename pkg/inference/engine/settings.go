package engine

// Settings configures a chat inference engine.
type Settings struct {
	// Model is the provider model identifier, e.g. "gpt-4o-mini".
	Model string `yaml:"model" json:"model"`
	// APIKey authenticates against the provider.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	// BaseURL overrides the provider endpoint, mostly for tests and proxies.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	// Temperature, when set, is passed through to the provider.
	Temperature *float32 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	// MaxTokens caps the completion length when set.
	MaxTokens *int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
}

// Clone returns a copy of the settings with the pointer fields duplicated.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	out := *s
	if s.Temperature != nil {
		t := *s.Temperature
		out.Temperature = &t
	}
	if s.MaxTokens != nil {
		m := *s.MaxTokens
		out.MaxTokens = &m
	}
	return &out
}
