package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"looptrust-ledger/internal/chain"
	"looptrust-ledger/internal/eventing"
	shipment "looptrust-ledger/internal/shipment/domain"
	"looptrust-ledger/internal/shipment/infrastructure/memory"
)

type recordingConfirmer struct {
	txs  []chain.Tx
	fail error
}

func (c *recordingConfirmer) SubmitAndConfirm(ctx context.Context, tx chain.Tx) (chain.Receipt, error) {
	c.txs = append(c.txs, tx)
	if c.fail != nil {
		return chain.Receipt{}, c.fail
	}
	return chain.Receipt{TxHash: "0xfeed", ConfirmedAt: time.Now().UTC()}, nil
}

func newService(t *testing.T, confirmer chain.Confirmer, bus eventing.EventBus) *LedgerService {
	t.Helper()
	svc, err := NewLedgerService(memory.NewRepository(), confirmer, bus, SystemClock{})
	if err != nil {
		t.Fatalf("new ledger service: %v", err)
	}
	return svc
}

func TestCreateShipment_Defaults(t *testing.T) {
	svc := newService(t, &recordingConfirmer{}, nil)
	ctx := context.Background()

	record, index, err := svc.CreateShipment(ctx, "0xA", "0xB", "2025-01-01T00:00:00Z", 150, "0.05")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if index != 0 {
		t.Fatalf("expected index 0, got %d", index)
	}
	if record.Status != shipment.StatusPending || record.IsPaid || !record.DeliveryTime.IsZero() {
		t.Fatalf("unexpected initial state: %+v", record)
	}
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !record.PickupTime.Equal(want) {
		t.Fatalf("expected pickup %v, got %v", want, record.PickupTime)
	}
}

func TestCreateShipment_Unauthenticated(t *testing.T) {
	confirmer := &recordingConfirmer{}
	svc := newService(t, confirmer, nil)

	_, _, err := svc.CreateShipment(context.Background(), "", "0xB", "", 10, "0.01")
	if !errors.Is(err, shipment.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if len(confirmer.txs) != 0 {
		t.Fatal("invalid create must not reach the chain")
	}
}

func TestLifecycle_FullScenario(t *testing.T) {
	svc := newService(t, &recordingConfirmer{}, nil)
	ctx := context.Background()

	_, index, err := svc.CreateShipment(ctx, "0xA", "0xB", "2025-01-01T00:00:00Z", 150, "0.05")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.StartShipment(ctx, "0xA", index); err != nil {
		t.Fatalf("start: %v", err)
	}
	record, err := svc.CompleteShipment(ctx, "0xA", index)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if record.Status != shipment.StatusDelivered || !record.IsPaid {
		t.Fatalf("expected delivered and paid, got %+v", record)
	}
	if record.DeliveryTime.IsZero() {
		t.Fatal("expected delivery time set")
	}
}

func TestStartShipment_FailureLadder(t *testing.T) {
	confirmer := &recordingConfirmer{}
	svc := newService(t, confirmer, nil)
	ctx := context.Background()

	if _, _, err := svc.CreateShipment(ctx, "0xA", "0xB", "", 150, "0.05"); err != nil {
		t.Fatalf("create: %v", err)
	}
	submitted := len(confirmer.txs)

	if _, err := svc.StartShipment(ctx, "0xA", 7); !errors.Is(err, shipment.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.StartShipment(ctx, "0xC", 0); !errors.Is(err, shipment.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	record, err := svc.GetShipment(ctx, "0xA", 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != shipment.StatusPending {
		t.Fatalf("failed start must not change status, got %v", record.Status)
	}
	if len(confirmer.txs) != submitted {
		t.Fatal("doomed transitions must not reach the chain")
	}

	if _, err := svc.StartShipment(ctx, "0xA", 0); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.CompleteShipment(ctx, "0xA", 0); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := svc.StartShipment(ctx, "0xA", 0); !errors.Is(err, shipment.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on delivered shipment, got %v", err)
	}
}

func TestConfirmerFailure_LeavesLedgerUntouched(t *testing.T) {
	confirmer := &recordingConfirmer{}
	svc := newService(t, confirmer, nil)
	ctx := context.Background()

	if _, _, err := svc.CreateShipment(ctx, "0xA", "0xB", "", 150, "0.05"); err != nil {
		t.Fatalf("create: %v", err)
	}

	confirmer.fail = chain.ErrConfirmationTimeout
	if _, err := svc.StartShipment(ctx, "0xA", 0); !errors.Is(err, chain.ErrConfirmationTimeout) {
		t.Fatalf("expected confirmation timeout, got %v", err)
	}
	record, err := svc.GetShipment(ctx, "0xA", 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != shipment.StatusPending {
		t.Fatalf("unconfirmed transition must not commit, got %v", record.Status)
	}
}

func TestGetShipment_SenderScoped(t *testing.T) {
	svc := newService(t, &recordingConfirmer{}, nil)
	ctx := context.Background()

	if _, _, err := svc.CreateShipment(ctx, "0xA", "0xB", "", 150, "0.05"); err != nil {
		t.Fatalf("create: %v", err)
	}

	// The record exists at index 0 but is invisible to a different sender.
	if _, err := svc.GetShipment(ctx, "0xC", 0); !errors.Is(err, shipment.ErrNotFound) {
		t.Fatalf("expected not found for foreign sender, got %v", err)
	}
	if _, err := svc.GetShipment(ctx, "0xA", 0); err != nil {
		t.Fatalf("sender must see own shipment: %v", err)
	}

	list, err := svc.ListShipments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 shipment in the collection, got %d", len(list))
	}
}

func TestEvents_PublishedAfterCommit(t *testing.T) {
	bus := eventing.NewInMemoryBus()
	var delivered []ShipmentDelivered
	bus.Subscribe(eventing.EventTypeOf[ShipmentDelivered](), func(ctx context.Context, event any) error {
		evt, ok := event.(ShipmentDelivered)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		delivered = append(delivered, evt)
		return nil
	})

	svc := newService(t, &recordingConfirmer{}, bus)
	ctx := context.Background()
	if _, _, err := svc.CreateShipment(ctx, "0xA", "0xB", "", 150, "0.05"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.StartShipment(ctx, "0xA", 0); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.CompleteShipment(ctx, "0xA", 0); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if len(delivered) != 1 {
		t.Fatalf("expected one delivered event, got %d", len(delivered))
	}
	if delivered[0].TxHash != "0xfeed" || delivered[0].Receiver != "0xB" {
		t.Fatalf("unexpected event payload: %+v", delivered[0])
	}
}

type hookedConfirmer struct {
	hook func()
}

func (c *hookedConfirmer) SubmitAndConfirm(ctx context.Context, tx chain.Tx) (chain.Receipt, error) {
	if c.hook != nil {
		c.hook()
	}
	return chain.Receipt{TxHash: "0xfeed", ConfirmedAt: time.Now().UTC()}, nil
}

func TestTransition_ConcurrentAdvanceNotRewound(t *testing.T) {
	repo := memory.NewRepository()
	confirmer := &hookedConfirmer{}
	svc, err := NewLedgerService(repo, confirmer, nil, SystemClock{})
	if err != nil {
		t.Fatalf("new ledger service: %v", err)
	}
	ctx := context.Background()

	_, index, err := svc.CreateShipment(ctx, "0xA", "0xB", "", 10, "0.01")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// While the first start awaits confirmation, another caller runs the
	// full lifecycle on the same shipment.
	racer, err := NewLedgerService(repo, chain.Immediate{}, nil, SystemClock{})
	if err != nil {
		t.Fatalf("new ledger service: %v", err)
	}
	confirmer.hook = func() {
		confirmer.hook = nil
		if _, err := racer.StartShipment(ctx, "0xA", index); err != nil {
			t.Fatalf("racing start: %v", err)
		}
		if _, err := racer.CompleteShipment(ctx, "0xA", index); err != nil {
			t.Fatalf("racing complete: %v", err)
		}
	}

	if _, err := svc.StartShipment(ctx, "0xA", index); !errors.Is(err, shipment.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	stored, err := repo.Get(ctx, index)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != shipment.StatusDelivered || !stored.IsPaid {
		t.Fatalf("delivered shipment was rewound: %+v", stored)
	}
}

func TestParsePickupTime(t *testing.T) {
	if _, err := ParsePickupTime("not a time"); !errors.Is(err, shipment.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	got, err := ParsePickupTime("1735689600000")
	if err != nil {
		t.Fatalf("parse ms: %v", err)
	}
	if got.Year() != 2025 {
		t.Fatalf("unexpected year %d", got.Year())
	}
	zero, err := ParsePickupTime("")
	if err != nil || !zero.IsZero() {
		t.Fatalf("empty input must parse to zero time, got %v err=%v", zero, err)
	}
}
