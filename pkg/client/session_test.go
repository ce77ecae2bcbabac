package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/echoagent/pkg/agent"
	"github.com/kadirpekel/echoagent/pkg/capability"
	"github.com/kadirpekel/echoagent/pkg/config"
	"github.com/kadirpekel/echoagent/pkg/server"
)

func runSession(t *testing.T, script string) string {
	t.Helper()

	c, _ := newTestAgent(t)
	var out strings.Builder
	session := NewSession(c, strings.NewReader(script), &out)

	require.NoError(t, session.Run(context.Background()))
	return out.String()
}

func TestSessionEcho(t *testing.T) {
	out := runSession(t, "hello there\nquit\n")

	assert.Contains(t, out, "Connected to EchoAgent (echo-agent-v1)")
	assert.Contains(t, out, "hello there")
	assert.Contains(t, out, "Bye.")
}

func TestSessionPrefixDirectives(t *testing.T) {
	out := runSession(t, "/prefix >> \nhi\n/clear\nhi again\nexit\n")

	assert.Contains(t, out, `Prefix set to ">> "`)
	assert.Contains(t, out, ">> hi")
	assert.Contains(t, out, "Prefix cleared.")
	assert.Contains(t, out, "hi again")
	assert.NotContains(t, out, ">> hi again")
}

func TestSessionInfo(t *testing.T) {
	out := runSession(t, "info\nquit\n")

	assert.Contains(t, out, "Agent: EchoAgent (echo-agent-v1) v1.0.0")
	assert.Contains(t, out, "echo_with_prefix")
	assert.Contains(t, out, "prefix (string, optional)")
}

func TestSessionSkipsBlankLines(t *testing.T) {
	out := runSession(t, "\n\nquit\n")
	assert.Contains(t, out, "Bye.")
}

func TestSessionEndsAtEOF(t *testing.T) {
	out := runSession(t, "hello\n")
	assert.Contains(t, out, "hello")
}

func TestSessionContinuesAfterError(t *testing.T) {
	c, ts := newTestAgent(t)
	var out strings.Builder
	session := NewSession(c, strings.NewReader("hello\nquit\n"), &out)

	// Fetch the card first so the session starts, then kill the server
	_, err := c.FetchAgentCard(context.Background())
	require.NoError(t, err)
	ts.Close()

	require.NoError(t, session.Run(context.Background()))
	assert.Contains(t, out.String(), "Error:")
	assert.Contains(t, out.String(), "Bye.")
}

func TestSessionPrintsAgentErrorMessage(t *testing.T) {
	// An agent with only echo registered; a prefixed message then hits
	// an unknown capability on the server side
	registry := capability.NewRegistry()
	echo, err := capability.NewDescriptor("echo", "Returns the message unchanged", nil)
	require.NoError(t, err)
	require.NoError(t, registry.Register(echo, func(ctx context.Context, message string, params map[string]any) (any, error) {
		return message, nil
	}))
	dispatcher := agent.NewDispatcher(testIdentity, registry)
	srv := server.New(config.ServerConfig{Host: "127.0.0.1", Port: 8000}, dispatcher, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c := New(ts.URL, 5*time.Second)
	var out strings.Builder
	session := NewSession(c, strings.NewReader("/prefix >> \nhi\nquit\n"), &out)

	require.NoError(t, session.Run(context.Background()))
	assert.Contains(t, out.String(), `Error: unknown capability "echo_with_prefix"`)
	assert.NotContains(t, out.String(), "unknown_capability")
}

func TestSessionFailsWithoutServer(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second)
	session := NewSession(c, strings.NewReader("quit\n"), &strings.Builder{})

	assert.Error(t, session.Run(context.Background()))
}
