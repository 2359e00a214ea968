package storage

import (
	"context"
	"errors"

	"pairScope/internal/model"
)

// ErrLockHeld is returned by a Locker when another holder owns the lock.
var ErrLockHeld = errors.New("lock held by another process")

// PoolSink receives assembled liquidity pool snapshots.
type PoolSink interface {
	PutPoolBatch(pools []model.LiquidityPool) error
}

// SubscriptionStore persists subscriptions keyed on (contract id, key xdr, network).
type SubscriptionStore interface {
	SubscriptionExists(ctx context.Context, contractID, keyXdr string, network model.Network) (bool, error)
	// CreateSubscription inserts sub and reports whether a new row was written.
	// An existing row is left untouched.
	CreateSubscription(ctx context.Context, sub model.Subscription) (bool, error)
	// UpsertSubscriptions inserts the subscriptions that do not exist yet; existing
	// rows are never modified.
	UpsertSubscriptions(ctx context.Context, subs []model.Subscription) error
	ListSubscriptions(ctx context.Context, network model.Network) ([]model.Subscription, error)
}

// CounterStore persists the per-network pair counter.
type CounterStore interface {
	LoadCounter(ctx context.Context, network model.Network) (model.Counter, bool, error)
	// SaveCounter upserts the counter; it never moves backwards.
	SaveCounter(ctx context.Context, network model.Network, count uint32) error
}

// Store is the full persistence contract used by the indexer.
type Store interface {
	SubscriptionStore
	CounterStore
}

// Locker provides cross-process mutual exclusion. TryLock returns ErrLockHeld when the
// lock is taken; release must be called once the critical section ends.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), err error)
}
