// Package redis persists the purchased-services list as a single JSON
// document in Redis, under the same key the browser client used.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	purchase "looptrust-ledger/internal/purchase/domain"
)

// Store reads and writes the full list under purchase.StorageKey.
type Store struct {
	client *redis.Client
	logger *log.Logger
}

// NewStore wraps an existing Redis client.
func NewStore(client *redis.Client, logger *log.Logger) (*Store, error) {
	if client == nil {
		return nil, errors.New("purchase redis store: nil client")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Store{client: client, logger: logger}, nil
}

// Load returns the stored list. A missing key or a malformed document
// both load as an empty list; corruption is logged, not surfaced, so
// one bad write cannot brick the purchase history view. Connection
// failures are returned so the write path can refuse to overwrite a
// document it could not read.
func (s *Store) Load(ctx context.Context) ([]*purchase.Record, error) {
	data, err := s.client.Get(ctx, purchase.StorageKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", purchase.ErrPersistence, err)
	}

	var records []*purchase.Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Printf("purchase store: discarding malformed document under %s: %v", purchase.StorageKey, err)
		return nil, nil
	}
	return records, nil
}

// Save replaces the stored list.
func (s *Store) Save(ctx context.Context, records []*purchase.Record) error {
	if records == nil {
		records = []*purchase.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: %v", purchase.ErrPersistence, err)
	}
	if err := s.client.Set(ctx, purchase.StorageKey, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", purchase.ErrPersistence, err)
	}
	return nil
}
