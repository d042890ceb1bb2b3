package narrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to the narrator backend. One request per submission; there
// is no retry. Cancellation happens through the caller's context, which is
// how a newer submission aborts an in-flight one.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a narration client. timeout bounds the whole
// narrate round trip (LLM plus TTS on the server side); zero means no
// deadline beyond the caller's context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Narrate submits the user's message and returns the ordered segment list.
func (c *Client) Narrate(ctx context.Context, message string) (*Response, error) {
	body, err := json.Marshal(Request{Message: message})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/narrate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("narrate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Detail != "" {
			return nil, fmt.Errorf("narrate request: %s", apiErr.Detail)
		}
		return nil, fmt.Errorf("narrate request: status %s", resp.Status)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode narration: %w", err)
	}
	return &out, nil
}
