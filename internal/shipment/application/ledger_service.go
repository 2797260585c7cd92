package application

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"looptrust-ledger/internal/chain"
	"looptrust-ledger/internal/eventing"
	"looptrust-ledger/internal/observability/metrics"
	shipment "looptrust-ledger/internal/shipment/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// LedgerService owns the shipment collection and enforces its lifecycle.
// Every mutating operation submits to the chain confirmer and commits only
// after confirmation; a failed round trip leaves the ledger untouched.
type LedgerService struct {
	repo      shipment.Repository
	confirmer chain.Confirmer
	bus       eventing.EventBus
	clock     Clock
}

// NewLedgerService constructs the service. The bus is optional.
func NewLedgerService(repo shipment.Repository, confirmer chain.Confirmer, bus eventing.EventBus, clock Clock) (*LedgerService, error) {
	if repo == nil {
		return nil, errors.New("ledger service: nil repository")
	}
	if confirmer == nil {
		return nil, errors.New("ledger service: nil confirmer")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &LedgerService{repo: repo, confirmer: confirmer, bus: bus, clock: clock}, nil
}

// CreateShipment validates inputs, awaits chain confirmation and appends a
// pending shipment. Returns the stored shipment and its index.
func (s *LedgerService) CreateShipment(ctx context.Context, caller, receiver, pickupTime string, distance float64, price string) (*shipment.Shipment, int, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveShipmentOp("create", result, time.Since(start))
	}()

	pickup, err := ParsePickupTime(pickupTime)
	if err != nil {
		result = metrics.ResultError
		return nil, 0, err
	}
	record, err := shipment.New(caller, receiver, pickup, distance, price, s.clock.Now())
	if err != nil {
		result = metrics.ResultError
		return nil, 0, err
	}

	receipt, err := s.confirm(ctx, chain.Tx{
		Method: "createShipment",
		Sender: caller,
		Params: map[string]string{
			"receiver": receiver,
			"distance": strconv.FormatFloat(distance, 'f', -1, 64),
			"price":    record.Price,
		},
	})
	if err != nil {
		result = metrics.ResultError
		return nil, 0, err
	}

	index, err := s.repo.Append(ctx, record)
	if err != nil {
		result = metrics.ResultError
		return nil, 0, err
	}
	s.publish(ctx, ShipmentCreated{
		Index:      index,
		Sender:     record.Sender,
		Receiver:   record.Receiver,
		Distance:   record.Distance,
		Price:      record.Price,
		TxHash:     receipt.TxHash,
		OccurredAt: s.clock.Now(),
	})
	return record.Clone(), index, nil
}

// StartShipment moves the shipment at index into transit.
func (s *LedgerService) StartShipment(ctx context.Context, caller string, index int) (*shipment.Shipment, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveShipmentOp("start", result, time.Since(start))
	}()

	record, err := s.transition(ctx, caller, index, "startShipment", func(rec *shipment.Shipment, now time.Time) error {
		return rec.Start(caller, now)
	})
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return record, nil
}

// CompleteShipment delivers the shipment at index and marks it paid.
func (s *LedgerService) CompleteShipment(ctx context.Context, caller string, index int) (*shipment.Shipment, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveShipmentOp("complete", result, time.Since(start))
	}()

	record, err := s.transition(ctx, caller, index, "completeShipment", func(rec *shipment.Shipment, now time.Time) error {
		return rec.Complete(caller, now)
	})
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return record, nil
}

// GetShipment returns the shipment at index, visible only to its sender.
// A record owned by a different sender reads as not found.
func (s *LedgerService) GetShipment(ctx context.Context, caller string, index int) (*shipment.Shipment, error) {
	if caller == "" {
		return nil, shipment.ErrUnauthenticated
	}
	record, err := s.repo.Get(ctx, index)
	if err != nil {
		return nil, err
	}
	if record.Sender != caller {
		return nil, shipment.ErrNotFound
	}
	return record, nil
}

// ListShipments returns the full ordered collection.
func (s *LedgerService) ListShipments(ctx context.Context) ([]*shipment.Shipment, error) {
	return s.repo.List(ctx)
}

// ShipmentCount returns the number of shipments in the ledger.
func (s *LedgerService) ShipmentCount(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *LedgerService) transition(ctx context.Context, caller string, index int, method string, apply func(*shipment.Shipment, time.Time) error) (*shipment.Shipment, error) {
	if caller == "" {
		return nil, shipment.ErrUnauthenticated
	}
	record, err := s.repo.Get(ctx, index)
	if err != nil {
		return nil, err
	}
	// Preconditions are checked before the chain round trip so that a
	// doomed transition never submits anything.
	probe := record.Clone()
	if err := apply(probe, s.clock.Now()); err != nil {
		return nil, err
	}

	receipt, err := s.confirm(ctx, chain.Tx{
		Method: method,
		Sender: caller,
		Params: map[string]string{"index": strconv.Itoa(index)},
	})
	if err != nil {
		return nil, err
	}

	// The record is re-read after the round trip. A transition that raced
	// ahead while the chain confirmed fails here instead of being rewound
	// by a stale copy.
	current, err := s.repo.Get(ctx, index)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := apply(current, now); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, index, current); err != nil {
		return nil, err
	}

	switch method {
	case "startShipment":
		s.publish(ctx, ShipmentStarted{Index: index, Sender: caller, TxHash: receipt.TxHash, OccurredAt: now})
	case "completeShipment":
		s.publish(ctx, ShipmentDelivered{
			Index:      index,
			Sender:     caller,
			Receiver:   current.Receiver,
			Price:      current.Price,
			TxHash:     receipt.TxHash,
			OccurredAt: now,
		})
	}
	return current, nil
}

func (s *LedgerService) confirm(ctx context.Context, tx chain.Tx) (chain.Receipt, error) {
	start := time.Now()
	receipt, err := s.confirmer.SubmitAndConfirm(ctx, tx)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveChainConfirm(result, time.Since(start))
	return receipt, err
}

func (s *LedgerService) publish(ctx context.Context, event any) {
	if s.bus == nil {
		return
	}
	// Event delivery is best effort; ledger state is already committed.
	_ = s.bus.Publish(ctx, event)
}

// ParsePickupTime parses a pickup time given as RFC 3339 or unix
// milliseconds. Empty input means not yet picked up.
func ParsePickupTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, shipment.ErrInvalidInput
}
