package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pairScope/internal/model"
)

func TestMemoryStoreCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sub := model.Subscription{ContractID: "CA", KeyXdr: "AAAAFA==", Network: model.NetworkMainnet}

	created, err := store.CreateSubscription(ctx, sub)
	if err != nil || !created {
		t.Fatalf("first create: %v %v", created, err)
	}
	created, err = store.CreateSubscription(ctx, sub)
	if err != nil || created {
		t.Fatalf("second create must be a no-op: %v %v", created, err)
	}

	exists, _ := store.SubscriptionExists(ctx, "CA", "AAAAFA==", model.NetworkMainnet)
	if !exists {
		t.Fatalf("expected subscription to exist")
	}
	exists, _ = store.SubscriptionExists(ctx, "CA", "AAAAFA==", model.NetworkTestnet)
	if exists {
		t.Fatalf("subscriptions are scoped by network")
	}
}

func TestMemoryStoreUpsertLeavesExistingRows(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := model.Subscription{ContractID: "CA", KeyXdr: "AAAAFA==", Network: model.NetworkMainnet}

	if _, err := store.CreateSubscription(ctx, base); err != nil {
		t.Fatalf("create: %v", err)
	}
	classified := base
	classified.ContractType = model.ContractTypePair
	classified.StorageType = model.StorageTypeInstance
	fresh := model.Subscription{ContractID: "CB", KeyXdr: "AAAAFA==", Network: model.NetworkMainnet, ContractType: model.ContractTypePair}
	if err := store.UpsertSubscriptions(ctx, []model.Subscription{classified, fresh}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	subs, _ := store.ListSubscriptions(ctx, model.NetworkMainnet)
	if len(subs) != 2 {
		t.Fatalf("expected 2 rows, got %+v", subs)
	}
	for _, sub := range subs {
		switch sub.ContractID {
		case "CA":
			if sub.ContractType != model.ContractTypeUnset || sub.StorageType != model.StorageTypeUnset {
				t.Fatalf("existing row must not be modified: %+v", sub)
			}
		case "CB":
			if sub.ContractType != model.ContractTypePair || sub.CreatedAt.IsZero() {
				t.Fatalf("new row mismatch: %+v", sub)
			}
		}
	}
}

func TestMemoryStoreCounterMonotonic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, ok, _ := store.LoadCounter(ctx, model.NetworkMainnet); ok {
		t.Fatalf("counter must start absent")
	}
	_ = store.SaveCounter(ctx, model.NetworkMainnet, 8)
	_ = store.SaveCounter(ctx, model.NetworkMainnet, 5)
	counter, ok, _ := store.LoadCounter(ctx, model.NetworkMainnet)
	if !ok || counter.Count != 8 {
		t.Fatalf("counter moved backwards: %+v", counter)
	}
	if _, ok, _ := store.LoadCounter(ctx, model.NetworkTestnet); ok {
		t.Fatalf("counters are keyed by network")
	}
}

func TestMemoryStoreLock(t *testing.T) {
	store := NewMemoryStore()
	release, err := store.TryLock(context.Background(), "sync")
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := store.TryLock(context.Background(), "sync"); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	release()
	if _, err := store.TryLock(context.Background(), "sync"); err != nil {
		t.Fatalf("lock after release: %v", err)
	}
}

func TestJsonlStoragePutPoolBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "pools.jsonl")
	sink := NewJsonlStorage(path, model.NetworkTestnet)

	pools := []model.LiquidityPool{
		{Address: "CP1", Reserve0: "10", Reserve1: "20"},
		{Address: "CP2", Reserve0: "0", Reserve1: "5"},
	}
	if err := sink.PutPoolBatch(pools); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := sink.PutPoolBatch(nil); err != nil {
		t.Fatalf("empty put: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var lines []poolLine
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var line poolLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		lines = append(lines, line)
	}
	if len(lines) != 2 || lines[1].Address != "CP2" || lines[0].Network != model.NetworkTestnet {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}
