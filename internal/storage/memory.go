package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"pairScope/internal/model"
)

type subscriptionKey struct {
	contractID string
	keyXdr     string
	network    model.Network
}

// MemoryStore is an in-process Store and Locker, used for dry runs without a database.
type MemoryStore struct {
	mu            sync.RWMutex
	subscriptions map[subscriptionKey]model.Subscription
	counters      map[model.Network]model.Counter
	locks         map[string]struct{}
	now           func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscriptions: make(map[subscriptionKey]model.Subscription),
		counters:      make(map[model.Network]model.Counter),
		locks:         make(map[string]struct{}),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) SubscriptionExists(_ context.Context, contractID, keyXdr string, network model.Network) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.subscriptions[subscriptionKey{contractID, keyXdr, network}]
	return ok, nil
}

func (s *MemoryStore) CreateSubscription(_ context.Context, sub model.Subscription) (bool, error) {
	key := subscriptionKey{sub.ContractID, sub.KeyXdr, sub.Network}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscriptions[key]; ok {
		return false, nil
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	s.subscriptions[key] = sub
	return true, nil
}

func (s *MemoryStore) UpsertSubscriptions(_ context.Context, subs []model.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range subs {
		s.upsert(sub)
	}
	return nil
}

func (s *MemoryStore) upsert(sub model.Subscription) {
	key := subscriptionKey{sub.ContractID, sub.KeyXdr, sub.Network}
	if _, ok := s.subscriptions[key]; ok {
		return
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	s.subscriptions[key] = sub
}

func (s *MemoryStore) ListSubscriptions(_ context.Context, network model.Network) ([]model.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Subscription, 0, len(s.subscriptions))
	for key, sub := range s.subscriptions {
		if key.network == network {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContractID != out[j].ContractID {
			return out[i].ContractID < out[j].ContractID
		}
		return out[i].KeyXdr < out[j].KeyXdr
	})
	return out, nil
}

func (s *MemoryStore) LoadCounter(_ context.Context, network model.Network) (model.Counter, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counter, ok := s.counters[network]
	return counter, ok, nil
}

func (s *MemoryStore) SaveCounter(_ context.Context, network model.Network, count uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.counters[network]; ok && current.Count > count {
		count = current.Count
	}
	s.counters[network] = model.Counter{Network: network, Count: count, UpdatedAt: s.now()}
	return nil
}

func (s *MemoryStore) TryLock(_ context.Context, key string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks[key]; ok {
		return nil, ErrLockHeld
	}
	s.locks[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.locks, key)
		s.mu.Unlock()
	}, nil
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Locker = (*MemoryStore)(nil)
)
