package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"pairScope/internal/model"
	"pairScope/internal/storage"
)

// Runs against a throwaway database named by INDEXER_TEST_PG_DSN.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("INDEXER_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("INDEXER_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.InitSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := store.pool.Exec(ctx, `TRUNCATE subscriptions, pair_counters`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return store
}

func TestStoreSubscriptions(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	sub := model.Subscription{ContractID: "CA", KeyXdr: "AAAAFA==", Network: model.NetworkMainnet}

	created, err := store.CreateSubscription(ctx, sub)
	if err != nil || !created {
		t.Fatalf("create: %v %v", created, err)
	}
	if created, _ := store.CreateSubscription(ctx, sub); created {
		t.Fatalf("duplicate create must be a no-op")
	}

	sub.ContractType = model.ContractTypePair
	sub.StorageType = model.StorageTypeInstance
	fresh := model.Subscription{ContractID: "CB", KeyXdr: "AAAAFA==", Network: model.NetworkMainnet, ContractType: model.ContractTypePair}
	if err := store.UpsertSubscriptions(ctx, []model.Subscription{sub, fresh}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	subs, err := store.ListSubscriptions(ctx, model.NetworkMainnet)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("unexpected subscriptions: %+v", subs)
	}
	if subs[0].ContractID != "CA" || subs[0].ContractType != model.ContractTypeUnset {
		t.Fatalf("existing row must not be modified: %+v", subs[0])
	}
	if subs[1].ContractID != "CB" || subs[1].ContractType != model.ContractTypePair {
		t.Fatalf("new row mismatch: %+v", subs[1])
	}
}

func TestStoreCounter(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if _, ok, err := store.LoadCounter(ctx, model.NetworkTestnet); err != nil || ok {
		t.Fatalf("counter must start absent: %v %v", ok, err)
	}
	if err := store.SaveCounter(ctx, model.NetworkTestnet, 8); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveCounter(ctx, model.NetworkTestnet, 3); err != nil {
		t.Fatalf("save: %v", err)
	}
	counter, ok, err := store.LoadCounter(ctx, model.NetworkTestnet)
	if err != nil || !ok || counter.Count != 8 {
		t.Fatalf("counter mismatch: %+v %v %v", counter, ok, err)
	}
}

func TestStoreAdvisoryLock(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	release, err := store.TryLock(ctx, "sync:test")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := store.TryLock(ctx, "sync:test"); !errors.Is(err, storage.ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	release()
}
