package redis

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"looptrust-ledger/internal/chain"
	"looptrust-ledger/internal/purchase/application"
	"looptrust-ledger/internal/purchase/catalog"
	purchase "looptrust-ledger/internal/purchase/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	store, err := NewStore(client, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, srv
}

func TestStore_EmptyLoad(t *testing.T) {
	store, _ := newTestStore(t)
	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty list, got %d records", len(records))
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	record, err := purchase.NewRecord(3, purchase.PlanPremium, 2, time.UnixMilli(1735689600000))
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if err := store.Save(ctx, []*purchase.Record{record}); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 record, got %d", len(loaded))
	}
	got := loaded[0]
	if got.ServiceID != 3 || got.Plan != purchase.PlanPremium || got.BusinessType != 2 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.PurchaseDate.UnixMilli() != 1735689600000 {
		t.Fatalf("purchase date drifted: %v", got.PurchaseDate)
	}
}

func TestStore_MalformedDocumentLoadsEmpty(t *testing.T) {
	store, srv := newTestStore(t)
	srv.Set(purchase.StorageKey, "{not json")

	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("malformed document must load as empty, got %d records", len(records))
	}
}

// The store surfaces connection failures to its caller. Read endpoints
// recover them to an empty history one layer up; the write path needs
// the error so an outage cannot truncate the stored document.
func TestStore_UnavailableServerSurfacesError(t *testing.T) {
	store, srv := newTestStore(t)
	srv.Close()

	if _, err := store.Load(context.Background()); err == nil {
		t.Fatal("expected load error after server shutdown")
	}
	if err := store.Save(context.Background(), nil); err == nil {
		t.Fatal("expected save error after server shutdown")
	}
}

func TestUnavailableServer_ListsAsEmptyHistory(t *testing.T) {
	store, srv := newTestStore(t)
	svc, err := application.NewPurchaseService(store, catalog.Default(), chain.Immediate{}, nil, application.SystemClock{}, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new purchase service: %v", err)
	}
	srv.Close()

	if list := svc.ListPurchases(context.Background()); len(list) != 0 {
		t.Fatalf("unreachable server must list as empty history, got %+v", list)
	}
}
