// Package memory provides an in-process purchase store used in tests
// and in deployments that run without Redis.
package memory

import (
	"context"
	"sync"

	purchase "looptrust-ledger/internal/purchase/domain"
)

// Store keeps the purchased-services list in process memory.
type Store struct {
	mu      sync.RWMutex
	records []*purchase.Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load returns a detached copy of the stored list.
func (s *Store) Load(ctx context.Context) ([]*purchase.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*purchase.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out, nil
}

// Save replaces the stored list.
func (s *Store) Save(ctx context.Context, records []*purchase.Record) error {
	copied := make([]*purchase.Record, len(records))
	for i, r := range records {
		copied[i] = r.Clone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = copied
	return nil
}
