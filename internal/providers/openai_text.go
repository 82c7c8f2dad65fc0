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

// OpenAIText calls any OpenAI-compatible /chat/completions endpoint. Both the
// primary (Grok via api.x.ai) and the fallback speak this wire shape.
type OpenAIText struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenAIText creates a text provider for an OpenAI-compatible API.
func NewOpenAIText(name, baseURL, apiKey, model string) *OpenAIText {
	return &OpenAIText{
		name:    name,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  sharedClient,
	}
}

// Name returns the configured provider name (used as the provenance tag).
func (p *OpenAIText) Name() string { return p.name }

// Generate performs a non-streaming chat completion bounded by ctx.
func (p *OpenAIText) Generate(ctx context.Context, genReq GenerateRequest) (string, error) {
	messages := make([]map[string]interface{}, 0, len(genReq.History)+1)
	for _, m := range genReq.History {
		messages = append(messages, map[string]interface{}{
			"role":    m.Role,
			"content": m.Content,
		})
	}
	messages = append(messages, map[string]interface{}{
		"role":    "user",
		"content": genReq.Prompt,
	})

	reqBody := map[string]interface{}{
		"model":    p.model,
		"messages": messages,
		"stream":   false,
	}
	if genReq.MaxTokens > 0 {
		reqBody["max_tokens"] = genReq.MaxTokens
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ProviderError{Provider: p.name, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewBuffer(reqJSON))
	if err != nil {
		return "", &ProviderError{Provider: p.name, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: p.name, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("❌ [PROVIDER] %s API error (status %d): %s", p.name, resp.StatusCode, truncate(string(body), 200))
		return "", &ProviderError{
			Provider:   p.name,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("chat completion failed"),
		}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ProviderError{Provider: p.name, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if len(result.Choices) == 0 {
		return "", &ProviderError{Provider: p.name, StatusCode: resp.StatusCode, Err: ErrEmptyResult}
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return "", &ProviderError{Provider: p.name, StatusCode: resp.StatusCode, Err: ErrEmptyResult}
	}

	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
