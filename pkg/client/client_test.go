package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/echoagent/pkg/agent"
	"github.com/kadirpekel/echoagent/pkg/capability"
	"github.com/kadirpekel/echoagent/pkg/config"
	"github.com/kadirpekel/echoagent/pkg/server"
)

var testIdentity = agent.Identity{
	AgentID:     "echo-agent-v1",
	Name:        "EchoAgent",
	Description: "An echo agent that returns the same message it receives",
	Version:     "1.0.0",
}

func newTestAgent(t *testing.T) (*Client, *httptest.Server) {
	t.Helper()

	registry := capability.NewRegistry()
	require.NoError(t, agent.RegisterEchoCapabilities(registry))
	dispatcher := agent.NewDispatcher(testIdentity, registry)
	srv := server.New(config.ServerConfig{Host: "127.0.0.1", Port: 8000}, dispatcher, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return New(ts.URL, 5*time.Second), ts
}

func countingHandler(next http.Handler, path string, hits *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == path {
			hits.Add(1)
		}
		next.ServeHTTP(w, r)
	})
}

func TestFetchAgentCard(t *testing.T) {
	c, _ := newTestAgent(t)

	card, err := c.FetchAgentCard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "echo-agent-v1", card.AgentID)
	assert.Equal(t, []string{"echo", "echo_with_prefix"}, card.CapabilityNames())
}

func TestFetchAgentCardIsCached(t *testing.T) {
	var hits atomic.Int32

	registry := capability.NewRegistry()
	require.NoError(t, agent.RegisterEchoCapabilities(registry))
	dispatcher := agent.NewDispatcher(testIdentity, registry)
	srv := server.New(config.ServerConfig{Host: "127.0.0.1", Port: 8000}, dispatcher, nil)

	handler := srv.Handler()
	ts := httptest.NewServer(countingHandler(handler, "/agent/card", &hits))
	t.Cleanup(ts.Close)

	c := New(ts.URL, 5*time.Second)
	ctx := context.Background()

	_, err := c.FetchAgentCard(ctx)
	require.NoError(t, err)
	_, err = c.FetchAgentCard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	_, err = c.RefreshAgentCard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestInvokeEcho(t *testing.T) {
	c, _ := newTestAgent(t)

	result, err := c.Invoke(context.Background(), "echo", "hello world", nil)
	require.NoError(t, err)

	assert.Equal(t, "hello world", result.Response)
	assert.Equal(t, "echo-agent-v1", result.AgentID)
	assert.Equal(t, "echo", result.CapabilityUsed)
}

func TestInvokeEchoWithPrefix(t *testing.T) {
	c, _ := newTestAgent(t)

	result, err := c.Invoke(context.Background(), "echo_with_prefix", "hi",
		map[string]any{"prefix": ">> "})
	require.NoError(t, err)
	assert.Equal(t, ">> hi", result.Response)
}

func TestInvokeErrorDecoding(t *testing.T) {
	c, _ := newTestAgent(t)

	_, err := c.Invoke(context.Background(), "teleport", "hi", nil)
	require.Error(t, err)

	var invErr *agent.InvocationError
	require.True(t, errors.As(err, &invErr))
	assert.Equal(t, agent.ErrUnknownCapability, invErr.Kind)
	assert.Equal(t, "teleport", invErr.Capability)
}

func TestHealth(t *testing.T) {
	c, _ := newTestAgent(t)

	status, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "EchoAgent", status.Agent)
}

func TestHealthServerDown(t *testing.T) {
	c, ts := newTestAgent(t)
	ts.Close()

	_, err := c.Health(context.Background())
	assert.Error(t, err)
}
