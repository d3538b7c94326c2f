package adapter

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// #endregion

// #region client

// HTTPAdapter talks to an OpenAI-compatible chat completions endpoint.
type HTTPAdapter struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewHTTPAdapter creates a client for the given endpoint. An empty apiKey
// skips the Authorization header (local endpoints).
func NewHTTPAdapter(baseURL, model, apiKey string) *HTTPAdapter {
	return &HTTPAdapter{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// NewHTTPAdapterWithClient injects an http.Client. Used for testing.
func NewHTTPAdapterWithClient(baseURL, model string, client *http.Client) *HTTPAdapter {
	return &HTTPAdapter{baseURL: baseURL, model: model, client: client}
}

// #endregion

// #region chat

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Chat posts the messages and decodes the completion.
func (a *HTTPAdapter) Chat(ctx context.Context, messages []Message) (Completion, error) {
	body, err := json.Marshal(chatRequest{Model: a.model, Messages: messages})
	if err != nil {
		return Completion{}, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Completion{}, fmt.Errorf("chat request: status %d: %s", resp.StatusCode, snippet)
	}

	var completion Completion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return Completion{}, fmt.Errorf("decode chat response: %w", err)
	}
	return completion, nil
}

// #endregion
