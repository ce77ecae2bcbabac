package capability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func echoHandler(ctx context.Context, message string, params map[string]any) (any, error) {
	return message, nil
}

func mustDescriptor(t *testing.T, name string) *Descriptor {
	t.Helper()
	desc, err := NewDescriptor(name, "test capability", nil)
	if err != nil {
		t.Fatalf("NewDescriptor(%q): %v", name, err)
	}
	return desc
}

func TestRegistryRegister(t *testing.T) {
	tests := []struct {
		name    string
		desc    *Descriptor
		handler Handler
		wantErr bool
	}{
		{
			name:    "valid registration",
			desc:    &Descriptor{Name: "echo"},
			handler: echoHandler,
		},
		{
			name:    "nil descriptor rejected",
			desc:    nil,
			handler: echoHandler,
			wantErr: true,
		},
		{
			name:    "empty name rejected",
			desc:    &Descriptor{},
			handler: echoHandler,
			wantErr: true,
		},
		{
			name:    "nil handler rejected",
			desc:    &Descriptor{Name: "echo"},
			handler: nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(tt.desc, tt.handler)
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRegistryDuplicateLeavesStateUnchanged(t *testing.T) {
	r := NewRegistry()

	first := mustDescriptor(t, "echo")
	first.Description = "the original"
	if err := r.Register(first, echoHandler); err != nil {
		t.Fatalf("first registration: %v", err)
	}

	second := mustDescriptor(t, "echo")
	second.Description = "the impostor"
	err := r.Register(second, echoHandler)
	if err == nil {
		t.Fatal("expected duplicate registration error")
	}
	var dupErr *DuplicateError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateError, got %T", err)
	}
	if dupErr.Name != "echo" {
		t.Errorf("expected duplicate name %q, got %q", "echo", dupErr.Name)
	}

	entry, err := r.Resolve("echo")
	if err != nil {
		t.Fatalf("resolve after duplicate: %v", err)
	}
	if entry.Descriptor.Description != "the original" {
		t.Error("duplicate registration must not replace the original entry")
	}
	if r.Count() != 1 {
		t.Errorf("expected 1 entry, got %d", r.Count())
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("missing")
	if err == nil {
		t.Fatal("expected error for unknown capability")
	}
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFoundError, got %T", err)
	}
	if nfErr.Name != "missing" {
		t.Errorf("expected name %q, got %q", "missing", nfErr.Name)
	}
}

func TestRegistryListPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()

	names := []string{"zeta", "alpha", "echo", "mid"}
	for _, name := range names {
		if err := r.Register(mustDescriptor(t, name), echoHandler); err != nil {
			t.Fatalf("register %q: %v", name, err)
		}
	}

	listed := r.List()
	if len(listed) != len(names) {
		t.Fatalf("expected %d descriptors, got %d", len(names), len(listed))
	}
	for i, name := range names {
		if listed[i].Name != name {
			t.Errorf("expected listed[%d]=%q, got %q", i, name, listed[i].Name)
		}
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			name := fmt.Sprintf("capability-%d", id)
			if err := r.Register(mustDescriptorName(name), echoHandler); err != nil {
				t.Errorf("register %q: %v", name, err)
			}
		}(i)
	}
	wg.Wait()

	if r.Count() != 10 {
		t.Errorf("expected 10 entries, got %d", r.Count())
	}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			name := fmt.Sprintf("capability-%d", id)
			if _, err := r.Resolve(name); err != nil {
				t.Errorf("resolve %q: %v", name, err)
			}
			_ = r.List()
		}(i)
	}
	wg.Wait()
}

func mustDescriptorName(name string) *Descriptor {
	desc, err := NewDescriptor(name, "test capability", nil)
	if err != nil {
		panic(err)
	}
	return desc
}
