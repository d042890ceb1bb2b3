package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// systemPrompt shapes every completion into narration-ready prose.
const systemPrompt = "You are a narrator. Respond in short, dramatic subtitle-style sentences. Keep responses concise and impactful, suitable for text-to-speech narration."

// LLM produces narration text for a user message.
type LLM interface {
	Complete(ctx context.Context, message, model string) (string, error)
}

// OpenRouterClient calls the OpenRouter chat completions API.
type OpenRouterClient struct {
	url          string
	apiKey       string
	defaultModel string
	maxTokens    int
	httpClient   *http.Client
}

// NewOpenRouterClient creates an LLM client. apiKey must be non-empty for
// Complete to succeed.
func NewOpenRouterClient(url, apiKey, defaultModel string, maxTokens int, timeout time.Duration) *OpenRouterClient {
	return &OpenRouterClient{
		url:          url,
		apiKey:       apiKey,
		defaultModel: defaultModel,
		maxTokens:    maxTokens,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// ErrLLMNotConfigured is returned when no OpenRouter API key is set.
var ErrLLMNotConfigured = errors.New("OpenRouter API key not configured")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the message through the narrator system prompt and
// returns the model's reply.
func (c *OpenRouterClient) Complete(ctx context.Context, message, model string) (string, error) {
	if c.apiKey == "" {
		return "", ErrLLMNotConfigured
	}
	if strings.TrimSpace(model) == "" {
		model = c.defaultModel
	}

	body, err := json.Marshal(completionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OpenRouter API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("OpenRouter API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("OpenRouter API error: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("OpenRouter API error: no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}
