package memory

import (
	"context"
	"sync"

	shipment "looptrust-ledger/internal/shipment/domain"
)

// Repository is an in-memory, insertion-ordered shipment repository.
type Repository struct {
	mu        sync.RWMutex
	shipments []*shipment.Shipment
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Append stores a new shipment and returns its index.
func (r *Repository) Append(ctx context.Context, s *shipment.Shipment) (int, error) {
	_ = ctx
	if s == nil {
		return 0, shipment.ErrNilShipment
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shipments = append(r.shipments, s.Clone())
	return len(r.shipments) - 1, nil
}

// Get returns the shipment at index.
func (r *Repository) Get(ctx context.Context, index int) (*shipment.Shipment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.shipments) {
		return nil, shipment.ErrNotFound
	}
	return r.shipments[index].Clone(), nil
}

// Update overwrites the shipment at index.
func (r *Repository) Update(ctx context.Context, index int, s *shipment.Shipment) error {
	_ = ctx
	if s == nil {
		return shipment.ErrNilShipment
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.shipments) {
		return shipment.ErrNotFound
	}
	r.shipments[index] = s.Clone()
	return nil
}

// List returns all shipments in insertion order.
func (r *Repository) List(ctx context.Context) ([]*shipment.Shipment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*shipment.Shipment, len(r.shipments))
	for i, s := range r.shipments {
		out[i] = s.Clone()
	}
	return out, nil
}

// Count returns the number of shipments.
func (r *Repository) Count(ctx context.Context) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shipments), nil
}
