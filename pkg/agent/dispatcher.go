package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/kadirpekel/echoagent/pkg/capability"
	"github.com/kadirpekel/echoagent/pkg/logger"
)

// Dispatcher routes invocation requests to registered capability
// handlers. It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	identity Identity
	registry *capability.Registry
	log      *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(identity Identity, registry *capability.Registry) *Dispatcher {
	return &Dispatcher{
		identity: identity,
		registry: registry,
		log:      logger.GetLogger(),
	}
}

// Identity returns the agent identity stamped on results.
func (d *Dispatcher) Identity() Identity {
	return d.identity
}

// Registry returns the underlying capability registry.
func (d *Dispatcher) Registry() *capability.Registry {
	return d.registry
}

// Dispatch validates and executes one invocation. All failures come back
// as *InvocationError; handler panics are recovered and reported as
// handler execution errors.
func (d *Dispatcher) Dispatch(ctx context.Context, req *InvocationRequest) (*InvocationResult, *InvocationError) {
	if req == nil || req.Capability == "" {
		return nil, &InvocationError{
			Kind:    ErrMalformedRequest,
			Message: "request must name a capability",
		}
	}

	entry, err := d.registry.Resolve(req.Capability)
	if err != nil {
		var notFound *capability.NotFoundError
		if errors.As(err, &notFound) {
			return nil, &InvocationError{
				Kind:       ErrUnknownCapability,
				Message:    err.Error(),
				Capability: req.Capability,
			}
		}
		return nil, &InvocationError{
			Kind:       ErrMalformedRequest,
			Message:    err.Error(),
			Capability: req.Capability,
		}
	}

	params, invErr := validateParameters(entry.Descriptor, req.Parameters)
	if invErr != nil {
		invErr.Capability = req.Capability
		return nil, invErr
	}

	response, invErr := d.execute(ctx, entry, req.Message, params)
	if invErr != nil {
		invErr.Capability = req.Capability
		return nil, invErr
	}

	return &InvocationResult{
		Response:       response,
		AgentID:        d.identity.AgentID,
		CapabilityUsed: req.Capability,
	}, nil
}

// validateParameters checks supplied parameters against the descriptor
// schema and returns the effective parameter map with defaults filled in.
// Unknown parameters are rejected. When several parameters are missing or
// unexpected, the first in name order is reported.
func validateParameters(desc *capability.Descriptor, supplied map[string]any) (map[string]any, *InvocationError) {
	var unexpected []string
	for name := range supplied {
		if _, ok := desc.Parameters[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return nil, &InvocationError{
			Kind:      ErrUnexpectedParameter,
			Message:   fmt.Sprintf("capability %q does not accept parameter %q", desc.Name, unexpected[0]),
			Parameter: unexpected[0],
		}
	}

	effective := make(map[string]any, len(desc.Parameters))
	for name, value := range supplied {
		effective[name] = value
	}

	for _, name := range desc.ParameterNames() {
		spec := desc.Parameters[name]
		if _, ok := effective[name]; ok {
			continue
		}
		if spec.Required {
			return nil, &InvocationError{
				Kind:      ErrMissingParameter,
				Message:   fmt.Sprintf("capability %q requires parameter %q", desc.Name, name),
				Parameter: name,
			}
		}
		if spec.HasDefault() {
			effective[name] = spec.Default
		}
	}

	return effective, nil
}

// execute runs the handler, converting returned errors and panics into
// handler execution errors.
func (d *Dispatcher) execute(ctx context.Context, entry *capability.Entry, message string, params map[string]any) (response any, invErr *InvocationError) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("capability handler panicked",
				"capability", entry.Descriptor.Name, "panic", r)
			invErr = &InvocationError{
				Kind:    ErrHandlerExecution,
				Message: fmt.Sprintf("capability %q failed: %v", entry.Descriptor.Name, r),
			}
		}
	}()

	result, err := entry.Handler(ctx, message, params)
	if err != nil {
		d.log.Error("capability handler failed",
			"capability", entry.Descriptor.Name, "error", err)
		return nil, &InvocationError{
			Kind:    ErrHandlerExecution,
			Message: fmt.Sprintf("capability %q failed: %v", entry.Descriptor.Name, err),
		}
	}

	return result, nil
}
