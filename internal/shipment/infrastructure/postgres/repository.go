package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	shipment "looptrust-ledger/internal/shipment/domain"
)

// Repository persists shipments in postgres. Position is assigned on
// insert and mirrors the in-memory collection index.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Append stores a new shipment and returns its position.
func (r *Repository) Append(ctx context.Context, s *shipment.Shipment) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("shipment repo: nil db")
	}
	if s == nil {
		return 0, shipment.ErrNilShipment
	}
	var position int
	err := r.db.QueryRowContext(ctx, `
INSERT INTO shipments (
	position, sender, receiver, pickup_time, delivery_time, distance, price, status, is_paid, created_at
)
SELECT COALESCE(MAX(position), -1) + 1, $1, $2, $3, $4, $5, $6, $7, $8, $9
FROM shipments
RETURNING position`,
		s.Sender, s.Receiver, nullTime(s.PickupTime), nullTime(s.DeliveryTime),
		s.Distance, s.Price, int(s.Status), s.IsPaid, s.CreatedAt,
	).Scan(&position)
	if err != nil {
		return 0, err
	}
	return position, nil
}

// Get returns the shipment at position.
func (r *Repository) Get(ctx context.Context, index int) (*shipment.Shipment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("shipment repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT sender, receiver, pickup_time, delivery_time, distance, price, status, is_paid, created_at
FROM shipments
WHERE position = $1`, index)
	return scanShipment(row)
}

// Update overwrites the shipment at position.
func (r *Repository) Update(ctx context.Context, index int, s *shipment.Shipment) error {
	if r == nil || r.db == nil {
		return errors.New("shipment repo: nil db")
	}
	if s == nil {
		return shipment.ErrNilShipment
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE shipments
SET sender = $2, receiver = $3, pickup_time = $4, delivery_time = $5,
	distance = $6, price = $7, status = $8, is_paid = $9
WHERE position = $1`,
		index, s.Sender, s.Receiver, nullTime(s.PickupTime), nullTime(s.DeliveryTime),
		s.Distance, s.Price, int(s.Status), s.IsPaid,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return shipment.ErrNotFound
	}
	return nil
}

// List returns all shipments ordered by position.
func (r *Repository) List(ctx context.Context) ([]*shipment.Shipment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("shipment repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT sender, receiver, pickup_time, delivery_time, distance, price, status, is_paid, created_at
FROM shipments
ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*shipment.Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of shipments.
func (r *Repository) Count(ctx context.Context) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("shipment repo: nil db")
	}
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shipments`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner) (*shipment.Shipment, error) {
	var s shipment.Shipment
	var pickup, delivery sql.NullTime
	var status int
	err := row.Scan(&s.Sender, &s.Receiver, &pickup, &delivery, &s.Distance, &s.Price, &status, &s.IsPaid, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shipment.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if pickup.Valid {
		s.PickupTime = pickup.Time
	}
	if delivery.Valid {
		s.DeliveryTime = delivery.Time
	}
	s.Status = shipment.Status(status)
	return &s, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
