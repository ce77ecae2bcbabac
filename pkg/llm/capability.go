package llm

import (
	"context"
	"fmt"

	"github.com/kadirpekel/echoagent/pkg/capability"
)

// RegisterCompletionCapability registers the complete capability backed
// by the given client. The message is sent as the user prompt; the
// optional system and temperature parameters shape the request.
func RegisterCompletionCapability(registry *capability.Registry, client *Client, defaultTemperature float64) error {
	desc, err := capability.NewDescriptor(
		"complete",
		"Generates a completion for the message using the configured language model",
		map[string]capability.ParameterSpec{
			"system": {
				Type:        "string",
				Description: "System prompt prepended to the conversation",
				Default:     "",
			},
			"temperature": {
				Type:        "number",
				Description: "Sampling temperature",
				Default:     defaultTemperature,
			},
		},
	)
	if err != nil {
		return err
	}

	handler := func(ctx context.Context, message string, params map[string]any) (any, error) {
		system, ok := params["system"].(string)
		if !ok {
			return nil, fmt.Errorf("system must be a string, got %T", params["system"])
		}

		temperature, err := toFloat(params["temperature"])
		if err != nil {
			return nil, fmt.Errorf("temperature must be a number: %w", err)
		}

		return client.Complete(ctx, system, message, temperature)
	}

	return registry.Register(desc, handler)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("got %T", v)
	}
}
