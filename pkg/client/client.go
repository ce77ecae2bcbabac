// Package client implements the agent protocol client: card discovery
// with caching, capability invocation, and an interactive session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kadirpekel/echoagent/pkg/agent"
	"github.com/kadirpekel/echoagent/pkg/httpclient"
)

// Client talks to an agent server over the HTTP protocol binding.
type Client struct {
	baseURL    string
	httpClient *httpclient.Client

	mu   sync.Mutex
	card *agent.Card
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the agent at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
			httpclient.WithHeaderParser(httpclient.ParseRetryAfterHeader),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ServerURL returns the base URL the client targets.
func (c *Client) ServerURL() string {
	return c.baseURL
}

// FetchAgentCard returns the agent's card, fetching it on first use and
// serving the cached copy afterwards.
func (c *Client) FetchAgentCard(ctx context.Context) (*agent.Card, error) {
	c.mu.Lock()
	cached := c.card
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	return c.RefreshAgentCard(ctx)
}

// RefreshAgentCard fetches the card from the server, replacing any
// cached copy.
func (c *Client) RefreshAgentCard(ctx context.Context) (*agent.Card, error) {
	var card agent.Card
	if err := c.get(ctx, "/agent/card", &card); err != nil {
		return nil, fmt.Errorf("failed to fetch agent card: %w", err)
	}

	c.mu.Lock()
	c.card = &card
	c.mu.Unlock()
	return &card, nil
}

// Invoke calls a capability on the agent. Protocol-level failures come
// back as *agent.InvocationError.
func (c *Client) Invoke(ctx context.Context, capability, message string, parameters map[string]any) (*agent.InvocationResult, error) {
	reqBody := agent.InvocationRequest{
		Message:    message,
		Capability: capability,
		Parameters: parameters,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode invocation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/agent/invoke", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create invocation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if resp == nil && err != nil {
		return nil, fmt.Errorf("invocation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read invocation response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var invErr agent.InvocationError
		if err := json.Unmarshal(body, &invErr); err != nil || invErr.Kind == "" {
			return nil, fmt.Errorf("invocation failed with HTTP %d: %s", resp.StatusCode, string(body))
		}
		return nil, &invErr
	}

	var result agent.InvocationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode invocation response: %w", err)
	}
	return &result, nil
}

// HealthStatus is the server's health report.
type HealthStatus struct {
	Status string `json:"status"`
	Agent  string `json:"agent"`
}

// Health checks the server's health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.get(ctx, "/health", &status); err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	return &status, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if resp == nil && err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
