package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"looptrust-ledger/internal/chain"
	"looptrust-ledger/internal/eventing"
	"looptrust-ledger/internal/observability/metrics"
	"looptrust-ledger/internal/purchase/catalog"
	purchase "looptrust-ledger/internal/purchase/domain"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ServicePurchased is emitted after a purchase is confirmed and saved.
type ServicePurchased struct {
	RecordID     string
	Wallet       string
	ServiceID    int
	Plan         purchase.PlanType
	BusinessType int
	PriceWei     string
	TxHash       string
	OccurredAt   time.Time
}

// PurchaseService records service purchases against the settlement
// contract and keeps the purchased-services document current.
type PurchaseService struct {
	store     purchase.Store
	catalog   *catalog.Catalog
	confirmer chain.Confirmer
	bus       eventing.EventBus
	clock     Clock
	logger    *log.Logger
}

// NewPurchaseService wires the purchase use cases. The bus is optional.
func NewPurchaseService(store purchase.Store, cat *catalog.Catalog, confirmer chain.Confirmer, bus eventing.EventBus, clock Clock, logger *log.Logger) (*PurchaseService, error) {
	if store == nil {
		return nil, errors.New("purchase service: nil store")
	}
	if cat == nil {
		return nil, errors.New("purchase service: nil catalog")
	}
	if confirmer == nil {
		return nil, errors.New("purchase service: nil confirmer")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PurchaseService{store: store, catalog: cat, confirmer: confirmer, bus: bus, clock: clock, logger: logger}, nil
}

// Catalog exposes the active service catalog.
func (s *PurchaseService) Catalog() *catalog.Catalog {
	return s.catalog
}

// RecordPurchase settles a service purchase and appends it to the
// stored list. The settlement amount is derived from the catalog tier.
// When the chain confirms but the store fails, the record is still
// returned alongside the persistence error so callers can surface a
// partial success.
func (s *PurchaseService) RecordPurchase(ctx context.Context, wallet string, serviceID int, plan string, businessType int) (*purchase.Record, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObservePurchase(result, time.Since(start))
	}()

	if wallet == "" {
		result = metrics.ResultError
		return nil, purchase.ErrUnauthenticated
	}
	planType, err := purchase.ParsePlanType(plan)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	record, err := purchase.NewRecord(serviceID, planType, businessType, s.clock.Now())
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	priceWei, err := s.catalog.PriceWei(serviceID, planType)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	receipt, err := s.confirm(ctx, chain.Tx{
		Method: "purchaseService",
		Sender: wallet,
		Params: map[string]string{
			"serviceId":    strconv.Itoa(serviceID),
			"planType":     strconv.Itoa(planType.Ordinal()),
			"businessType": strconv.Itoa(businessType),
			"value":        priceWei,
		},
	})
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("purchase service %d: %w", serviceID, err)
	}

	records, err := s.store.Load(ctx)
	if err != nil {
		result = metrics.ResultError
		return record, err
	}
	records = append(records, record)
	if err := s.store.Save(ctx, records); err != nil {
		result = metrics.ResultError
		return record, err
	}

	s.publish(ctx, ServicePurchased{
		RecordID:     record.ID,
		Wallet:       wallet,
		ServiceID:    serviceID,
		Plan:         planType,
		BusinessType: businessType,
		PriceWei:     priceWei,
		TxHash:       receipt.TxHash,
		OccurredAt:   record.PurchaseDate,
	})
	return record, nil
}

// ListPurchases returns all stored purchase records. A store failure
// reads as an empty history; only the write path reports it, so an
// outage never turns into a double charge or a clobbered document.
func (s *PurchaseService) ListPurchases(ctx context.Context) []*purchase.Record {
	records, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Printf("purchase service: reading history as empty: %v", err)
		return nil
	}
	return records
}

// HasPurchased reports whether any record exists for the service.
// Unreadable history counts as no purchases.
func (s *PurchaseService) HasPurchased(ctx context.Context, serviceID int) bool {
	for _, r := range s.ListPurchases(ctx) {
		if r.ServiceID == serviceID {
			return true
		}
	}
	return false
}

func (s *PurchaseService) confirm(ctx context.Context, tx chain.Tx) (chain.Receipt, error) {
	start := time.Now()
	receipt, err := s.confirmer.SubmitAndConfirm(ctx, tx)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveChainConfirm(result, time.Since(start))
	return receipt, err
}

func (s *PurchaseService) publish(ctx context.Context, event any) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, event)
}
