package shipment

import "context"

// Repository persists the ordered shipment collection. Index is the
// position within the collection at creation time and never changes.
type Repository interface {
	// Append stores a new shipment and returns its index.
	Append(ctx context.Context, s *Shipment) (int, error)
	// Get returns the shipment at index, or ErrNotFound.
	Get(ctx context.Context, index int) (*Shipment, error)
	// Update overwrites the shipment at index.
	Update(ctx context.Context, index int, s *Shipment) error
	// List returns all shipments in insertion order.
	List(ctx context.Context) ([]*Shipment, error)
	// Count returns the number of shipments.
	Count(ctx context.Context) (int, error)
}
