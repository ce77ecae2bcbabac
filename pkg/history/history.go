// Package history records completed invocations so they can be inspected
// later through the server's history endpoint.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kadirpekel/echoagent/pkg/config"
)

// Record is one completed invocation, successful or failed.
type Record struct {
	ID         string    `json:"id"`
	Capability string    `json:"capability"`
	Message    string    `json:"message"`
	Response   string    `json:"response,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists invocation records.
type Store interface {
	Append(ctx context.Context, record Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// NewStoreFromConfig builds a store for the configured backend. A nil
// config disables history and returns a nil store.
func NewStoreFromConfig(cfg *config.HistoryConfig) (Store, error) {
	if cfg == nil {
		return nil, nil
	}

	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(cfg.Limit), nil
	case "sql":
		return NewSQLStoreFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", cfg.Backend)
	}
}

// MemoryStore keeps the most recent records in a fixed-size ring.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	limit   int
}

// NewMemoryStore creates a memory store keeping at most limit records.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = 100
	}
	return &MemoryStore{limit: limit}
}

func (s *MemoryStore) Append(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	if len(s.records) > s.limit {
		s.records = s.records[len(s.records)-s.limit:]
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}

	result := make([]Record, 0, limit)
	for i := len(s.records) - 1; i >= len(s.records)-limit; i-- {
		result = append(result, s.records[i])
	}
	return result, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
