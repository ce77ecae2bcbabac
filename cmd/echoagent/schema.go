package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/kadirpekel/echoagent/pkg/config"
)

// SchemaCmd generates JSON Schema from the config structs.
// Output is written to stdout so it can be redirected.
type SchemaCmd struct {
	Compact bool `help:"Compact JSON output (no indentation)."`
}

func (c *SchemaCmd) Run(cli *CLI) error {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Title = "EchoAgent Configuration Schema"
	schema.Description = "Configuration schema for the echoagent server and client"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	encoder := json.NewEncoder(os.Stdout)
	if !c.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return nil
}
