// Package capability defines the capability model an agent advertises and
// serves: descriptors with parameter schemas, handlers, and an ordered
// registry resolving capability names to both.
package capability

import (
	"context"
	"fmt"
	"sort"
)

// Handler executes a capability invocation. The message is the primary
// input; params has already been validated and filled with defaults.
type Handler func(ctx context.Context, message string, params map[string]any) (any, error)

// ParameterSpec describes a single named parameter of a capability.
// A parameter is either required (caller must supply it) or optional with
// a declared default. Default is declared when non-nil.
type ParameterSpec struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
}

// HasDefault reports whether the parameter declares a default value.
func (p ParameterSpec) HasDefault() bool {
	return p.Default != nil
}

// Descriptor is the static advertisement of a capability: its identity
// and the schema of parameters it accepts. Descriptors are immutable
// after construction.
type Descriptor struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Parameters  map[string]ParameterSpec `json:"parameters,omitempty"`
}

// NewDescriptor validates and builds a Descriptor. It fails when the name
// is empty or when a parameter is marked required while also declaring a
// default, since the default would never apply.
func NewDescriptor(name, description string, params map[string]ParameterSpec) (*Descriptor, error) {
	if name == "" {
		return nil, &DescriptorError{Reason: "capability name must not be empty"}
	}
	for _, pname := range sortedParamNames(params) {
		spec := params[pname]
		if spec.Required && spec.HasDefault() {
			return nil, &DescriptorError{
				Name:   name,
				Reason: fmt.Sprintf("parameter %q is required but declares a default", pname),
			}
		}
	}

	copied := make(map[string]ParameterSpec, len(params))
	for k, v := range params {
		copied[k] = v
	}

	return &Descriptor{
		Name:        name,
		Description: description,
		Parameters:  copied,
	}, nil
}

// ParameterNames returns the declared parameter names in sorted order.
func (d *Descriptor) ParameterNames() []string {
	return sortedParamNames(d.Parameters)
}

func sortedParamNames(params map[string]ParameterSpec) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
