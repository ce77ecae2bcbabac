// Package agent implements the agent core: the published agent card,
// the invocation dispatcher, and the built-in echo capabilities.
package agent

import (
	"fmt"
	"net/http"
)

// InvocationRequest is a single capability invocation as received on the
// wire.
type InvocationRequest struct {
	Message    string         `json:"message"`
	Capability string         `json:"capability"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// InvocationResult is the success envelope returned to callers.
type InvocationResult struct {
	Response       any    `json:"response"`
	AgentID        string `json:"agent_id"`
	CapabilityUsed string `json:"capability_used"`
}

// ErrorKind classifies invocation failures.
type ErrorKind string

const (
	ErrMalformedRequest    ErrorKind = "malformed_request"
	ErrUnknownCapability   ErrorKind = "unknown_capability"
	ErrMissingParameter    ErrorKind = "missing_parameter"
	ErrUnexpectedParameter ErrorKind = "unexpected_parameter"
	ErrHandlerExecution    ErrorKind = "handler_execution_error"
)

// InvocationError is the failure envelope returned to callers. Kind is
// machine-readable; Message is human-readable. Capability and Parameter
// name the offending capability and parameter where applicable.
type InvocationError struct {
	Kind       ErrorKind `json:"error_kind"`
	Message    string    `json:"message"`
	Capability string    `json:"capability,omitempty"`
	Parameter  string    `json:"parameter,omitempty"`
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// HTTPStatus maps the error kind to its wire status code.
func (e *InvocationError) HTTPStatus() int {
	switch e.Kind {
	case ErrUnknownCapability:
		return http.StatusNotFound
	case ErrHandlerExecution:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
