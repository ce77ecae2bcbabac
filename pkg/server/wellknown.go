package server

import (
	"github.com/a2aproject/a2a-go/a2a"

	"github.com/kadirpekel/echoagent/pkg/agent"
)

// buildWellKnownCard converts the agent's card into a standards-compliant
// A2A agent card served at /.well-known/agent-card.json. Each capability
// maps to one skill.
func buildWellKnownCard(identity agent.Identity, card *agent.Card, baseURL string) *a2a.AgentCard {
	skills := make([]a2a.AgentSkill, 0, len(card.Capabilities))
	for _, cap := range card.Capabilities {
		skills = append(skills, a2a.AgentSkill{
			ID:          cap.Name,
			Name:        cap.Name,
			Description: cap.Description,
			Tags:        []string{"echo"},
		})
	}
	if len(skills) == 0 {
		skills = []a2a.AgentSkill{{
			ID:          identity.AgentID,
			Name:        identity.Name,
			Description: identity.Description,
			Tags:        []string{"echo"},
		}}
	}

	return &a2a.AgentCard{
		Name:               identity.Name,
		Description:        identity.Description,
		URL:                baseURL,
		Version:            identity.Version,
		ProtocolVersion:    "1.0",
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills:             skills,
		Capabilities: a2a.AgentCapabilities{
			Streaming:              false,
			PushNotifications:      false,
			StateTransitionHistory: false,
		},
		PreferredTransport: a2a.TransportProtocolJSONRPC,
		Provider: &a2a.AgentProvider{
			Org: "EchoAgent",
			URL: "https://github.com/kadirpekel/echoagent",
		},
	}
}
