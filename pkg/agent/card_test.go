package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/echoagent/pkg/capability"
)

var testIdentity = Identity{
	AgentID:     "echo-agent-v1",
	Name:        "EchoAgent",
	Description: "An echo agent that returns the same message it receives",
	Version:     "1.0.0",
}

func newEchoRegistry(t *testing.T) *capability.Registry {
	t.Helper()
	registry := capability.NewRegistry()
	require.NoError(t, RegisterEchoCapabilities(registry))
	return registry
}

func TestNewCard(t *testing.T) {
	registry := newEchoRegistry(t)
	card := NewCard(testIdentity, registry)

	assert.Equal(t, "echo-agent-v1", card.AgentID)
	assert.Equal(t, "EchoAgent", card.Name)
	assert.Equal(t, "1.0.0", card.Version)
	assert.Equal(t, []string{"echo", "echo_with_prefix"}, card.CapabilityNames())

	require.Len(t, card.Capabilities, 2)
	assert.Nil(t, card.Capabilities[0].Parameters)
	require.Contains(t, card.Capabilities[1].Parameters, "prefix")
	assert.True(t, card.Capabilities[1].Parameters["prefix"].HasDefault())
}

func TestCardIsSnapshot(t *testing.T) {
	registry := newEchoRegistry(t)
	card := NewCard(testIdentity, registry)

	desc, err := capability.NewDescriptor("late", "registered after the card", nil)
	require.NoError(t, err)
	require.NoError(t, registry.Register(desc, func(ctx context.Context, message string, params map[string]any) (any, error) {
		return message, nil
	}))

	assert.Equal(t, []string{"echo", "echo_with_prefix"}, card.CapabilityNames())
}

func TestManifestIsDeterministic(t *testing.T) {
	registry := newEchoRegistry(t)
	card := NewCard(testIdentity, registry)

	first, err := card.Manifest()
	require.NoError(t, err)
	second, err := card.Manifest()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestManifestShape(t *testing.T) {
	registry := newEchoRegistry(t)
	card := NewCard(testIdentity, registry)

	manifest, err := card.Manifest()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(manifest, &decoded))

	assert.Equal(t, "echo-agent-v1", decoded["agent_id"])
	assert.Equal(t, "EchoAgent", decoded["name"])
	assert.Equal(t, "1.0.0", decoded["version"])

	caps, ok := decoded["capabilities"].([]any)
	require.True(t, ok)
	assert.Len(t, caps, 2)
}
