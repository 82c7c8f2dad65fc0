package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// Chatterbox defaults tuned for educational content: engaging but not
// over-dramatic, with slightly slower pacing for kids.
const (
	chatterboxExaggeration = 0.7
	chatterboxCfgWeight    = 0.4
)

// Chatterbox calls a self-hosted Chatterbox TTS server. A VoiceRef, when
// present, names a voice known to the server; without one the server's
// default voice is used.
type Chatterbox struct {
	name    string
	baseURL string
	client  *http.Client
}

// NewChatterbox creates an audio provider for a Chatterbox server.
func NewChatterbox(name, baseURL string) *Chatterbox {
	return &Chatterbox{
		name:    name,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  sharedClient,
	}
}

// Name returns the configured provider name (used as the provenance tag).
func (p *Chatterbox) Name() string { return p.name }

// Synthesize generates speech for the text, bounded by ctx.
func (p *Chatterbox) Synthesize(ctx context.Context, synthReq SynthesizeRequest) (Audio, error) {
	reqBody := map[string]interface{}{
		"input":        synthReq.Text,
		"exaggeration": chatterboxExaggeration,
		"cfg_weight":   chatterboxCfgWeight,
	}
	if synthReq.VoiceRef != "" {
		reqBody["voice"] = synthReq.VoiceRef
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return Audio{}, &ProviderError{Provider: p.name, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/audio/speech", bytes.NewBuffer(reqJSON))
	if err != nil {
		return Audio{}, &ProviderError{Provider: p.name, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Audio{}, &ProviderError{Provider: p.name, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("❌ [PROVIDER] %s TTS error (status %d): %s", p.name, resp.StatusCode, truncate(string(body), 200))
		return Audio{}, &ProviderError{
			Provider:   p.name,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("speech synthesis failed"),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Audio{}, &ProviderError{Provider: p.name, Err: fmt.Errorf("failed to read audio: %w", err)}
	}
	if len(data) == 0 {
		return Audio{}, &ProviderError{Provider: p.name, StatusCode: resp.StatusCode, Err: ErrEmptyResult}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}

	return Audio{Data: data, ContentType: contentType}, nil
}
