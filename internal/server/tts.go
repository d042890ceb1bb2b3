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

// Synthesizer turns text into audio.
type Synthesizer interface {
	// Synthesize returns the audio payload and its MIME type.
	Synthesize(ctx context.Context, text string) ([]byte, string, error)
	// Configured reports whether the synthesizer has credentials.
	Configured() bool
}

// ErrTTSNotConfigured is returned when no Hugging Face API key is set.
var ErrTTSNotConfigured = errors.New("TTS not configured")

// KokoroClient calls the Kokoro TTS model via the Hugging Face router.
type KokoroClient struct {
	url        string
	apiKey     string
	voice      string
	speed      float64
	httpClient *http.Client
}

// NewKokoroClient creates a synthesizer. An empty apiKey yields a client
// whose Synthesize always fails with ErrTTSNotConfigured.
func NewKokoroClient(url, apiKey, voice string, speed float64, timeout time.Duration) *KokoroClient {
	return &KokoroClient{
		url:        url,
		apiKey:     apiKey,
		voice:      voice,
		speed:      speed,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *KokoroClient) Configured() bool { return c.apiKey != "" }

type synthesisRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		Voice string  `json:"voice"`
		Speed float64 `json:"speed"`
		Lang  string  `json:"lang"`
	} `json:"parameters"`
}

// Synthesize renders text as WAV audio.
func (c *KokoroClient) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if c.apiKey == "" {
		return nil, "", ErrTTSNotConfigured
	}

	payload := synthesisRequest{Inputs: text}
	payload.Parameters.Voice = c.voice
	payload.Parameters.Speed = c.speed
	payload.Parameters.Lang = "en-us"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("TTS error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("TTS error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("TTS error: read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, "", errors.New("TTS error: empty audio response")
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/") {
		mimeType = "audio/wav"
	}
	return audio, mimeType, nil
}
