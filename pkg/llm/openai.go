// Package llm provides the OpenAI-compatible backend behind the
// complete capability.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kadirpekel/echoagent/pkg/config"
	"github.com/kadirpekel/echoagent/pkg/httpclient"
)

// Client talks to an OpenAI-compatible chat completions API.
type Client struct {
	cfg        *config.LLMConfig
	httpClient *httpclient.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []choice  `json:"choices"`
	Error   *apiError `json:"error,omitempty"`
}

type choice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// NewClient creates a client for the configured backend.
func NewClient(cfg *config.LLMConfig) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("llm base_url is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	httpClient := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
		httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
	)

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
	}, nil
}

// Complete sends a single-turn completion request and returns the text of
// the first choice.
func (c *Client) Complete(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	request := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: temperature,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	// The retrying client returns both a response and an error on non-2xx
	// statuses; the body still carries the API's diagnostic.
	resp, err := c.httpClient.Do(req)
	if resp == nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return "", fmt.Errorf("failed to read completion response: %w", readErr)
	}

	var decoded chatResponse
	if jsonErr := json.Unmarshal(data, &decoded); jsonErr != nil {
		if err != nil {
			return "", fmt.Errorf("completion request failed: %w", err)
		}
		return "", fmt.Errorf("failed to decode completion response: %w", jsonErr)
	}

	if decoded.Error != nil {
		return "", fmt.Errorf("completion API error: %s", decoded.Error.Message)
	}
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return decoded.Choices[0].Message.Content, nil
}

const defaultTimeout = 120 * time.Second
