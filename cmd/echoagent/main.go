// Command echoagent runs the echo agent server and its protocol client.
//
// Usage:
//
//	echoagent serve --config config.yaml
//	echoagent echo "hello world"
//	echoagent chat
//	echoagent card
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/echoagent/pkg/agent"
	"github.com/kadirpekel/echoagent/pkg/capability"
	"github.com/kadirpekel/echoagent/pkg/config"
	"github.com/kadirpekel/echoagent/pkg/history"
	"github.com/kadirpekel/echoagent/pkg/llm"
	"github.com/kadirpekel/echoagent/pkg/logger"
	"github.com/kadirpekel/echoagent/pkg/server"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the agent server."`
	Card    CardCmd    `cmd:"" help:"Fetch and print the agent card."`
	Echo    EchoCmd    `cmd:"" help:"Invoke a capability once."`
	Chat    ChatCmd    `cmd:"" help:"Start an interactive session."`
	Health  HealthCmd  `cmd:"" help:"Check server health."`
	Schema  SchemaCmd  `cmd:"" help:"Generate JSON Schema for the config file."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("echoagent version %s\n", version)
	return nil
}

// ServeCmd starts the agent server.
type ServeCmd struct {
	Host  string `help:"Listen host (overrides config)."`
	Port  int    `help:"Listen port (overrides config)."`
	Watch bool   `help:"Watch config file for changes."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	// CLI logging flags win; otherwise the config file's logger section applies
	configLogger := cli.LogLevel == "info" && cli.LogFile == "" && cli.LogFormat == "simple"

	cfg, loader, err := config.LoadFile(ctx, cli.Config, config.WithOnChange(func(updated *config.Config) {
		if !configLogger {
			return
		}
		if err := initLogger(updated.Logger.Level, updated.Logger.File, updated.Logger.Format); err != nil {
			slog.Error("Failed to apply reloaded logger config", "error", err)
		}
	}))
	if err != nil {
		return err
	}
	if loader != nil {
		defer loader.Close()
	}

	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	if configLogger {
		if err := initLogger(cfg.Logger.Level, cfg.Logger.File, cfg.Logger.Format); err != nil {
			return fmt.Errorf("failed to apply logger config: %w", err)
		}
	}

	registry := capability.NewRegistry()
	if err := agent.RegisterEchoCapabilities(registry); err != nil {
		return fmt.Errorf("failed to register capabilities: %w", err)
	}

	if cfg.LLM != nil {
		llmClient, err := llm.NewClient(cfg.LLM)
		if err != nil {
			return fmt.Errorf("failed to create llm client: %w", err)
		}
		if err := llm.RegisterCompletionCapability(registry, llmClient, cfg.LLM.Temperature); err != nil {
			return fmt.Errorf("failed to register complete capability: %w", err)
		}
	}

	store, err := history.NewStoreFromConfig(cfg.History)
	if err != nil {
		return fmt.Errorf("failed to create history store: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	dispatcher := agent.NewDispatcher(agent.Identity{
		AgentID:     cfg.Agent.AgentID,
		Name:        cfg.Agent.Name,
		Description: cfg.Agent.Description,
		Version:     cfg.Agent.Version,
	}, registry)

	srv := server.New(cfg.Server, dispatcher, store)

	slog.Info("Starting agent",
		"agent", cfg.Agent.AgentID,
		"capabilities", srv.Card().CapabilityNames(),
		"address", srv.Address())

	if c.Watch && loader != nil {
		go func() {
			if err := loader.Watch(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Config watch stopped", "error", err)
			}
		}()
	}

	return srv.Start(ctx)
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("echoagent"),
		kong.Description("A2A echo agent - capability registry and invocation over HTTP"),
		kong.UsageOnError(),
	)

	if err := initLogger(cli.LogLevel, cli.LogFile, cli.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}

func initLogger(level, file, format string) error {
	parsed, err := logger.ParseLevel(level)
	if err != nil {
		return err
	}

	output := os.Stderr
	if file != "" {
		f, _, err := logger.OpenLogFile(file)
		if err != nil {
			return err
		}
		output = f
	}

	logger.Init(parsed, output, format)
	return nil
}
