package models

// ProviderConfig describes one generation provider in the providers file.
// Text providers speak the OpenAI-compatible /chat/completions shape; audio
// providers speak an /audio/speech shape (Chatterbox or OpenAI-compatible).
type ProviderConfig struct {
	Name      string `yaml:"name" json:"name"`
	Type      string `yaml:"type" json:"type"` // "openai-compatible" or "chatterbox"
	BaseURL   string `yaml:"base_url" json:"base_url"`
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"` // env var holding the key; never the key itself
	Model     string `yaml:"model" json:"model"`
	Voice     string `yaml:"voice,omitempty" json:"voice,omitempty"` // default voice for audio providers
	Enabled   bool   `yaml:"enabled" json:"enabled"`
}

// ProvidersConfig is the providers file: ordered fallback chains for the two
// generation paths. Order is priority order — the orchestrator tries index 0
// first.
type ProvidersConfig struct {
	Text  []ProviderConfig `yaml:"text" json:"text"`
	Audio []ProviderConfig `yaml:"audio" json:"audio"`
}
