package agent

import (
	"encoding/json"
	"fmt"

	"github.com/kadirpekel/echoagent/pkg/capability"
)

// Identity holds the agent's stable identifying metadata.
type Identity struct {
	AgentID     string
	Name        string
	Description string
	Version     string
}

// CardCapability is one advertised capability in the card.
type CardCapability struct {
	Name        string                              `json:"name"`
	Description string                              `json:"description"`
	Parameters  map[string]capability.ParameterSpec `json:"parameters,omitempty"`
}

// Card is the discovery manifest an agent publishes. It is a snapshot:
// once built, later registry changes do not alter it.
type Card struct {
	AgentID      string           `json:"agent_id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Version      string           `json:"version"`
	Capabilities []CardCapability `json:"capabilities"`
}

// NewCard builds a card from the agent identity and the current registry
// contents. Capabilities appear in registration order with their full
// parameter schemas.
func NewCard(identity Identity, registry *capability.Registry) *Card {
	descriptors := registry.List()
	caps := make([]CardCapability, 0, len(descriptors))
	for _, desc := range descriptors {
		params := make(map[string]capability.ParameterSpec, len(desc.Parameters))
		for name, spec := range desc.Parameters {
			params[name] = spec
		}
		if len(params) == 0 {
			params = nil
		}
		caps = append(caps, CardCapability{
			Name:        desc.Name,
			Description: desc.Description,
			Parameters:  params,
		})
	}

	return &Card{
		AgentID:      identity.AgentID,
		Name:         identity.Name,
		Description:  identity.Description,
		Version:      identity.Version,
		Capabilities: caps,
	}
}

// Manifest serializes the card to JSON. Output is deterministic for a
// given card: object keys are emitted in a fixed order and capabilities
// keep registration order.
func (c *Card) Manifest() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize agent card: %w", err)
	}
	return data, nil
}

// CapabilityNames returns the advertised capability names in order.
func (c *Card) CapabilityNames() []string {
	names := make([]string, 0, len(c.Capabilities))
	for _, cap := range c.Capabilities {
		names = append(names, cap.Name)
	}
	return names
}
