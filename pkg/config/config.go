// Package config defines the agent configuration model and the loader
// that reads it from YAML with environment variable expansion.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the echo agent.
type Config struct {
	Agent   AgentConfig    `yaml:"agent" json:"agent" jsonschema:"description=Agent identity and metadata"`
	Server  ServerConfig   `yaml:"server" json:"server" jsonschema:"description=HTTP server settings"`
	Client  ClientConfig   `yaml:"client" json:"client" jsonschema:"description=Protocol client settings"`
	LLM     *LLMConfig     `yaml:"llm,omitempty" json:"llm,omitempty" jsonschema:"description=Optional LLM backend for the complete capability"`
	History *HistoryConfig `yaml:"history,omitempty" json:"history,omitempty" jsonschema:"description=Optional invocation history store"`
	Logger  LoggerConfig   `yaml:"logger" json:"logger" jsonschema:"description=Logging settings"`
}

// AgentConfig identifies the agent in its card and responses.
type AgentConfig struct {
	AgentID     string `yaml:"agent_id" json:"agent_id" jsonschema:"description=Stable agent identifier"`
	Name        string `yaml:"name" json:"name" jsonschema:"description=Human-readable agent name"`
	Description string `yaml:"description" json:"description" jsonschema:"description=Agent description"`
	Version     string `yaml:"version" json:"version" jsonschema:"description=Agent version"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" json:"host" jsonschema:"description=Listen host,default=127.0.0.1"`
	Port int    `yaml:"port" json:"port" jsonschema:"description=Listen port,default=8000"`
}

// Address returns the host:port listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ClientConfig holds protocol client settings.
type ClientConfig struct {
	ServerURL string        `yaml:"server_url" json:"server_url" jsonschema:"description=Base URL of the agent server"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"description=Request timeout"`
}

// LLMConfig configures the OpenAI-compatible backend used by the
// complete capability. The capability is only registered when this
// section is present.
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url" jsonschema:"description=OpenAI-compatible API base URL"`
	APIKey      string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key"`
	Model       string        `yaml:"model" json:"model" jsonschema:"description=Model name"`
	Temperature float64       `yaml:"temperature" json:"temperature" jsonschema:"description=Sampling temperature,default=0.7"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"description=Max completion tokens,default=1024"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"description=Request timeout"`
}

// HistoryConfig configures the invocation history store.
type HistoryConfig struct {
	Backend string `yaml:"backend" json:"backend" jsonschema:"description=Store backend (memory or sql),default=memory"`
	Limit   int    `yaml:"limit" json:"limit" jsonschema:"description=Max records kept by the memory backend,default=100"`

	Driver   string `yaml:"driver,omitempty" json:"driver,omitempty" jsonschema:"description=SQL driver (sqlite, mysql, postgres)"`
	Host     string `yaml:"host,omitempty" json:"host,omitempty" jsonschema:"description=Database host"`
	Port     int    `yaml:"port,omitempty" json:"port,omitempty" jsonschema:"description=Database port"`
	Username string `yaml:"username,omitempty" json:"username,omitempty" jsonschema:"description=Database username"`
	Password string `yaml:"password,omitempty" json:"password,omitempty" jsonschema:"description=Database password"`
	Database string `yaml:"database,omitempty" json:"database,omitempty" jsonschema:"description=Database name or sqlite file path"`
	SSLMode  string `yaml:"ssl_mode,omitempty" json:"ssl_mode,omitempty" jsonschema:"description=Postgres SSL mode,default=disable"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level" json:"level" jsonschema:"description=Log level (debug, info, warn, error),default=info"`
	Format string `yaml:"format" json:"format" jsonschema:"description=Log format (simple or verbose),default=simple"`
	File   string `yaml:"file,omitempty" json:"file,omitempty" jsonschema:"description=Optional log file path"`
}

// SetDefaults fills in zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	if c.Agent.AgentID == "" {
		c.Agent.AgentID = "echo-agent-v1"
	}
	if c.Agent.Name == "" {
		c.Agent.Name = "EchoAgent"
	}
	if c.Agent.Description == "" {
		c.Agent.Description = "An echo agent that returns the same message it receives"
	}
	if c.Agent.Version == "" {
		c.Agent.Version = "1.0.0"
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Client.ServerURL == "" {
		c.Client.ServerURL = "http://localhost:8000"
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = 60 * time.Second
	}
	if c.LLM != nil {
		if c.LLM.Model == "" {
			c.LLM.Model = "gpt-4o-mini"
		}
		if c.LLM.Temperature == 0 {
			c.LLM.Temperature = 0.7
		}
		if c.LLM.MaxTokens == 0 {
			c.LLM.MaxTokens = 1024
		}
		if c.LLM.Timeout == 0 {
			c.LLM.Timeout = 120 * time.Second
		}
	}
	if c.History != nil {
		if c.History.Backend == "" {
			c.History.Backend = "memory"
		}
		if c.History.Limit == 0 {
			c.History.Limit = 100
		}
		if c.History.Backend == "sql" {
			if c.History.Driver == "" {
				c.History.Driver = "sqlite"
			}
			if c.History.SSLMode == "" {
				c.History.SSLMode = "disable"
			}
			if c.History.Driver == "sqlite" && c.History.Database == "" {
				c.History.Database = "echoagent.db"
			}
		}
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "simple"
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.LLM != nil {
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm base_url is required when llm section is present")
		}
	}
	if c.History != nil {
		switch c.History.Backend {
		case "memory", "sql":
		default:
			return fmt.Errorf("unsupported history backend: %s", c.History.Backend)
		}
		if c.History.Backend == "sql" {
			switch c.History.Driver {
			case "sqlite", "mysql", "postgres":
			default:
				return fmt.Errorf("unsupported history driver: %s", c.History.Driver)
			}
			if c.History.Database == "" {
				return fmt.Errorf("history database is required for sql backend")
			}
		}
	}
	return nil
}

// Default returns a fully defaulted configuration without reading a file.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}
