package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kadirpekel/echoagent/pkg/client"
	"github.com/kadirpekel/echoagent/pkg/config"
)

// clientFor builds a protocol client from the config file plus an
// optional --server override.
func clientFor(cli *CLI, serverURL string) (*client.Client, error) {
	cfg, loader, err := config.LoadFile(context.Background(), cli.Config)
	if err != nil {
		return nil, err
	}
	if loader != nil {
		loader.Close()
	}

	url := cfg.Client.ServerURL
	if serverURL != "" {
		url = serverURL
	}

	return client.New(url, cfg.Client.Timeout), nil
}

// CardCmd fetches and prints the agent card.
type CardCmd struct {
	Server string `short:"s" help:"Agent server URL (overrides config)."`
	JSON   bool   `help:"Print the raw card JSON."`
}

func (c *CardCmd) Run(cli *CLI) error {
	cl, err := clientFor(cli, c.Server)
	if err != nil {
		return err
	}

	card, err := cl.FetchAgentCard(context.Background())
	if err != nil {
		return err
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(card)
	}

	fmt.Printf("Agent: %s (%s) v%s\n", card.Name, card.AgentID, card.Version)
	if card.Description != "" {
		fmt.Printf("  %s\n", card.Description)
	}
	fmt.Println("Capabilities:")
	for _, cap := range card.Capabilities {
		fmt.Printf("  %s - %s\n", cap.Name, cap.Description)
	}
	return nil
}

// EchoCmd invokes a capability once and prints the response.
type EchoCmd struct {
	Message    string `arg:"" help:"Message to send."`
	Server     string `short:"s" help:"Agent server URL (overrides config)."`
	Capability string `help:"Capability to invoke." default:"echo"`
	Prefix     string `help:"Prefix for echo_with_prefix."`
}

func (c *EchoCmd) Run(cli *CLI) error {
	cl, err := clientFor(cli, c.Server)
	if err != nil {
		return err
	}

	capName := c.Capability
	var params map[string]any
	if c.Prefix != "" {
		capName = "echo_with_prefix"
		params = map[string]any{"prefix": c.Prefix}
	}

	result, err := cl.Invoke(context.Background(), capName, c.Message, params)
	if err != nil {
		return err
	}

	fmt.Printf("%v\n", result.Response)
	return nil
}

// ChatCmd runs an interactive session against the agent.
type ChatCmd struct {
	Server string `short:"s" help:"Agent server URL (overrides config)."`
}

func (c *ChatCmd) Run(cli *CLI) error {
	cl, err := clientFor(cli, c.Server)
	if err != nil {
		return err
	}

	session := client.NewSession(cl, os.Stdin, os.Stdout)
	return session.Run(context.Background())
}

// HealthCmd checks server health.
type HealthCmd struct {
	Server string `short:"s" help:"Agent server URL (overrides config)."`
}

func (c *HealthCmd) Run(cli *CLI) error {
	cl, err := clientFor(cli, c.Server)
	if err != nil {
		return err
	}

	status, err := cl.Health(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", status.Status, status.Agent)
	return nil
}
