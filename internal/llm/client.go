// Package llm wraps the OpenRouter-compatible chat completion API used by
// every LLM-backed component. Every caller is expected to hold a deterministic
// fallback (spec.md §9, "LLM-optional design"); this package never retries
// past the caller's context deadline.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"

	"insightpipeline/internal/config"
)

// ChatClient is the interface every LLM-using component depends on, so tests
// can substitute a mock and run independent of network/model behavior.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message) (*ChatResponse, error)
	Model() string
}

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ChatResponse is the decoded API response.
type ChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Text returns the first choice's content, or "" if the response has none.
func (r *ChatResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Client is the default ChatClient implementation.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	log        hclog.Logger
}

// New creates a Client from configuration.
func New(cfg *config.Config) *Client {
	return &Client{
		apiKey:     cfg.LLMAPIKey,
		baseURL:    cfg.LLMBaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.LLMTimeout},
		log:        hclog.New(&hclog.LoggerOptions{Name: "llm", Level: hclog.Info}),
	}
}

func (c *Client) Model() string { return c.model }

// Chat sends a single non-streaming chat completion request. Callers that
// cannot tolerate a missing backend (LLMAPIKey == "") should check Model()
// availability via the component's own fallback path instead of calling
// Chat at all.
func (c *Client) Chat(ctx context.Context, messages []Message) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("llm: no API key configured")
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.4,
		MaxTokens:   4096,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	started := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("llm API error %d: %s", resp.StatusCode, string(raw))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}

	c.log.Debug("chat completion", "model", c.model, "wall_time_ms", time.Since(started).Milliseconds())
	return &chatResp, nil
}
