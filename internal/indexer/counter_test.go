package indexer

import (
	"context"
	"errors"
	"testing"
)

func TestPairCounter(t *testing.T) {
	f := newFixture(t, 12)
	got, err := f.counter.PairCounter(context.Background())
	if err != nil {
		t.Fatalf("pair counter: %v", err)
	}
	if got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
}

func TestPairCounterNoEntries(t *testing.T) {
	f := newFixture(t, 0)
	f.ledger.noCounter = true
	got, err := f.counter.PairCounter(context.Background())
	if err != nil || got != 0 {
		t.Fatalf("expected 0 without error, got %d %v", got, err)
	}
}

func TestPairCounterServiceUnavailable(t *testing.T) {
	f := newFixture(t, 3)
	f.ledger.latestErr = errDown

	_, err := f.counter.PairCounter(context.Background())
	if !errors.Is(err, ErrServiceUnavailable) || !errors.Is(err, errDown) {
		t.Fatalf("expected wrapped ErrServiceUnavailable, got %v", err)
	}
	if f.ledger.latestCalls != 2 {
		t.Fatalf("expected one retry, got %d calls", f.ledger.latestCalls)
	}
}
