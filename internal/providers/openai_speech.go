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

// OpenAISpeech calls an OpenAI-compatible /audio/speech endpoint (model +
// named voice). Used as the fallback when the self-hosted TTS is unavailable.
type OpenAISpeech struct {
	name         string
	baseURL      string
	apiKey       string
	model        string
	defaultVoice string
	client       *http.Client
}

// NewOpenAISpeech creates an audio provider for an OpenAI-compatible speech API.
func NewOpenAISpeech(name, baseURL, apiKey, model, defaultVoice string) *OpenAISpeech {
	if defaultVoice == "" {
		defaultVoice = "nova"
	}
	return &OpenAISpeech{
		name:         name,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       apiKey,
		model:        model,
		defaultVoice: defaultVoice,
		client:       sharedClient,
	}
}

// Name returns the configured provider name (used as the provenance tag).
func (p *OpenAISpeech) Name() string { return p.name }

// Synthesize generates speech for the text, bounded by ctx.
func (p *OpenAISpeech) Synthesize(ctx context.Context, synthReq SynthesizeRequest) (Audio, error) {
	voice := synthReq.VoiceRef
	if voice == "" {
		voice = p.defaultVoice
	}

	reqBody := map[string]interface{}{
		"model": p.model,
		"input": synthReq.Text,
		"voice": voice,
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return Audio{}, &ProviderError{Provider: p.name, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/audio/speech", bytes.NewBuffer(reqJSON))
	if err != nil {
		return Audio{}, &ProviderError{Provider: p.name, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Audio{}, &ProviderError{Provider: p.name, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("❌ [PROVIDER] %s speech error (status %d): %s", p.name, resp.StatusCode, truncate(string(body), 200))
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
		contentType = "audio/mpeg"
	}

	return Audio{Data: data, ContentType: contentType}, nil
}
