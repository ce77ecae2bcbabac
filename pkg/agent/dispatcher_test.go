package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/echoagent/pkg/capability"
)

func newEchoDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return NewDispatcher(testIdentity, newEchoRegistry(t))
}

func TestDispatchEcho(t *testing.T) {
	d := newEchoDispatcher(t)

	result, invErr := d.Dispatch(context.Background(), &InvocationRequest{
		Message:    "hello world",
		Capability: "echo",
	})
	require.Nil(t, invErr)

	assert.Equal(t, "hello world", result.Response)
	assert.Equal(t, "echo-agent-v1", result.AgentID)
	assert.Equal(t, "echo", result.CapabilityUsed)
}

func TestDispatchEchoWithPrefix(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]any
		expected string
	}{
		{
			name:     "explicit prefix",
			params:   map[string]any{"prefix": ">> "},
			expected: ">> hi",
		},
		{
			name:     "default empty prefix",
			params:   nil,
			expected: "hi",
		},
		{
			name:     "explicit empty prefix",
			params:   map[string]any{"prefix": ""},
			expected: "hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newEchoDispatcher(t)
			result, invErr := d.Dispatch(context.Background(), &InvocationRequest{
				Message:    "hi",
				Capability: "echo_with_prefix",
				Parameters: tt.params,
			})
			require.Nil(t, invErr)
			assert.Equal(t, tt.expected, result.Response)
		})
	}
}

func TestDispatchErrors(t *testing.T) {
	tests := []struct {
		name     string
		req      *InvocationRequest
		kind     ErrorKind
		param    string
	}{
		{
			name: "nil request",
			req:  nil,
			kind: ErrMalformedRequest,
		},
		{
			name: "empty capability",
			req:  &InvocationRequest{Message: "hi"},
			kind: ErrMalformedRequest,
		},
		{
			name: "unknown capability",
			req:  &InvocationRequest{Message: "hi", Capability: "teleport"},
			kind: ErrUnknownCapability,
		},
		{
			name: "unexpected parameter",
			req: &InvocationRequest{
				Message:    "hi",
				Capability: "echo",
				Parameters: map[string]any{"color": "red"},
			},
			kind:  ErrUnexpectedParameter,
			param: "color",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newEchoDispatcher(t)
			result, invErr := d.Dispatch(context.Background(), tt.req)
			assert.Nil(t, result)
			require.NotNil(t, invErr)
			assert.Equal(t, tt.kind, invErr.Kind)
			if tt.param != "" {
				assert.Equal(t, tt.param, invErr.Parameter)
			}
		})
	}
}

func TestDispatchMissingRequiredParameter(t *testing.T) {
	registry := capability.NewRegistry()
	desc, err := capability.NewDescriptor("translate", "translates the message",
		map[string]capability.ParameterSpec{
			"language": {Type: "string", Required: true},
		})
	require.NoError(t, err)
	require.NoError(t, registry.Register(desc, func(ctx context.Context, message string, params map[string]any) (any, error) {
		return message, nil
	}))

	d := NewDispatcher(testIdentity, registry)
	_, invErr := d.Dispatch(context.Background(), &InvocationRequest{
		Message:    "hi",
		Capability: "translate",
	})
	require.NotNil(t, invErr)
	assert.Equal(t, ErrMissingParameter, invErr.Kind)
	assert.Equal(t, "language", invErr.Parameter)
	assert.Equal(t, "translate", invErr.Capability)
}

func TestDispatchReportsFirstMissingParameterByName(t *testing.T) {
	registry := capability.NewRegistry()
	desc, err := capability.NewDescriptor("multi", "needs several parameters",
		map[string]capability.ParameterSpec{
			"zeta":  {Type: "string", Required: true},
			"alpha": {Type: "string", Required: true},
		})
	require.NoError(t, err)
	require.NoError(t, registry.Register(desc, func(ctx context.Context, message string, params map[string]any) (any, error) {
		return message, nil
	}))

	d := NewDispatcher(testIdentity, registry)
	for i := 0; i < 5; i++ {
		_, invErr := d.Dispatch(context.Background(), &InvocationRequest{
			Message:    "hi",
			Capability: "multi",
		})
		require.NotNil(t, invErr)
		assert.Equal(t, "alpha", invErr.Parameter)
	}
}

func TestDispatchHandlerError(t *testing.T) {
	registry := capability.NewRegistry()
	desc, err := capability.NewDescriptor("flaky", "always fails", nil)
	require.NoError(t, err)
	require.NoError(t, registry.Register(desc, func(ctx context.Context, message string, params map[string]any) (any, error) {
		return nil, errors.New("backend unavailable")
	}))

	d := NewDispatcher(testIdentity, registry)
	_, invErr := d.Dispatch(context.Background(), &InvocationRequest{
		Message:    "hi",
		Capability: "flaky",
	})
	require.NotNil(t, invErr)
	assert.Equal(t, ErrHandlerExecution, invErr.Kind)
	assert.Contains(t, invErr.Message, "backend unavailable")
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	registry := capability.NewRegistry()
	desc, err := capability.NewDescriptor("explosive", "always panics", nil)
	require.NoError(t, err)
	require.NoError(t, registry.Register(desc, func(ctx context.Context, message string, params map[string]any) (any, error) {
		panic("boom")
	}))

	d := NewDispatcher(testIdentity, registry)
	_, invErr := d.Dispatch(context.Background(), &InvocationRequest{
		Message:    "hi",
		Capability: "explosive",
	})
	require.NotNil(t, invErr)
	assert.Equal(t, ErrHandlerExecution, invErr.Kind)
	assert.Contains(t, invErr.Message, "boom")

	// Dispatcher stays usable after a panic
	result, invErr := d.Dispatch(context.Background(), &InvocationRequest{
		Message:    "still here",
		Capability: "explosive",
	})
	assert.Nil(t, result)
	assert.NotNil(t, invErr)
}

func TestDispatchDefaultsDoNotOverrideSupplied(t *testing.T) {
	registry := capability.NewRegistry()
	var seen map[string]any
	desc, err := capability.NewDescriptor("probe", "records parameters",
		map[string]capability.ParameterSpec{
			"mode": {Type: "string", Default: "fast"},
		})
	require.NoError(t, err)
	require.NoError(t, registry.Register(desc, func(ctx context.Context, message string, params map[string]any) (any, error) {
		seen = params
		return message, nil
	}))

	d := NewDispatcher(testIdentity, registry)

	_, invErr := d.Dispatch(context.Background(), &InvocationRequest{
		Message:    "hi",
		Capability: "probe",
		Parameters: map[string]any{"mode": "slow"},
	})
	require.Nil(t, invErr)
	assert.Equal(t, "slow", seen["mode"])

	_, invErr = d.Dispatch(context.Background(), &InvocationRequest{
		Message:    "hi",
		Capability: "probe",
	})
	require.Nil(t, invErr)
	assert.Equal(t, "fast", seen["mode"])
}

func TestInvocationErrorHTTPStatus(t *testing.T) {
	tests := []struct {
		kind   ErrorKind
		status int
	}{
		{ErrMalformedRequest, 400},
		{ErrMissingParameter, 400},
		{ErrUnexpectedParameter, 400},
		{ErrUnknownCapability, 404},
		{ErrHandlerExecution, 502},
	}

	for _, tt := range tests {
		err := &InvocationError{Kind: tt.kind, Message: "test"}
		assert.Equal(t, tt.status, err.HTTPStatus(), "kind %s", tt.kind)
	}
}
