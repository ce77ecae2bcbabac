package agent

import (
	"context"
	"fmt"

	"github.com/kadirpekel/echoagent/pkg/capability"
)

// RegisterEchoCapabilities registers the built-in echo and
// echo_with_prefix capabilities.
func RegisterEchoCapabilities(registry *capability.Registry) error {
	echo, err := capability.NewDescriptor(
		"echo",
		"Returns the message unchanged",
		nil,
	)
	if err != nil {
		return err
	}
	if err := registry.Register(echo, echoHandler); err != nil {
		return err
	}

	prefixed, err := capability.NewDescriptor(
		"echo_with_prefix",
		"Returns the message with a prefix prepended",
		map[string]capability.ParameterSpec{
			"prefix": {
				Type:        "string",
				Description: "String prepended to the message",
				Default:     "",
			},
		},
	)
	if err != nil {
		return err
	}
	return registry.Register(prefixed, echoWithPrefixHandler)
}

func echoHandler(ctx context.Context, message string, params map[string]any) (any, error) {
	return message, nil
}

func echoWithPrefixHandler(ctx context.Context, message string, params map[string]any) (any, error) {
	prefix, ok := params["prefix"].(string)
	if !ok {
		return nil, fmt.Errorf("prefix must be a string, got %T", params["prefix"])
	}
	return prefix + message, nil
}
