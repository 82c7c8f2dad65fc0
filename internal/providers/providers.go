package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"schoolgenius/internal/models"
)

// Message is one turn of short conversational history passed to a text
// provider alongside the prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is the input to a text provider.
type GenerateRequest struct {
	Prompt    string
	History   []Message
	MaxTokens int
}

// SynthesizeRequest is the input to an audio provider.
type SynthesizeRequest struct {
	Text     string
	VoiceRef string // voice identity; empty means the provider's default
}

// Audio is a synthesized speech artifact.
type Audio struct {
	Data        []byte
	ContentType string
}

// TextProvider generates a text answer for a prompt. Implementations return
// ErrEmptyResult (wrapped in a *ProviderError) when the service responded
// successfully but with no content, so callers can distinguish that from an
// outage.
type TextProvider interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// AudioProvider synthesizes speech for a text, with the same error contract.
type AudioProvider interface {
	Name() string
	Synthesize(ctx context.Context, req SynthesizeRequest) (Audio, error)
}

// sharedClient is reused across providers; per-attempt deadlines come from
// the caller's context, not the client.
var sharedClient = &http.Client{Timeout: 120 * time.Second}

// BuildTextChain instantiates the enabled text providers in file order.
func BuildTextChain(configs []models.ProviderConfig) ([]TextProvider, error) {
	var chain []TextProvider
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		switch cfg.Type {
		case "openai-compatible":
			chain = append(chain, NewOpenAIText(cfg.Name, cfg.BaseURL, apiKeyFromEnv(cfg.APIKeyEnv), cfg.Model))
		default:
			return nil, fmt.Errorf("unknown text provider type %q for %s", cfg.Type, cfg.Name)
		}
	}
	return chain, nil
}

// BuildAudioChain instantiates the enabled audio providers in file order.
func BuildAudioChain(configs []models.ProviderConfig) ([]AudioProvider, error) {
	var chain []AudioProvider
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		switch cfg.Type {
		case "chatterbox":
			chain = append(chain, NewChatterbox(cfg.Name, cfg.BaseURL))
		case "openai-compatible":
			chain = append(chain, NewOpenAISpeech(cfg.Name, cfg.BaseURL, apiKeyFromEnv(cfg.APIKeyEnv), cfg.Model, cfg.Voice))
		default:
			return nil, fmt.Errorf("unknown audio provider type %q for %s", cfg.Type, cfg.Name)
		}
	}
	return chain, nil
}

func apiKeyFromEnv(envVar string) string {
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}
