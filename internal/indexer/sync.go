package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"pairScope/internal/dex"
	"pairScope/internal/model"
	"pairScope/internal/protocol"
	"pairScope/internal/storage"
)

// Synchronizer discovers new pairs, registers their subscriptions and returns pool
// snapshots.
type Synchronizer struct {
	network    model.Network
	counter    *CounterTracker
	pools      *PoolAggregator
	store      storage.Store
	subscriber Subscriber
	classifier *protocol.Classifier
	locker     storage.Locker
	metrics    *Metrics
	logger     *zap.Logger

	group singleflight.Group
	now   func() time.Time
}

func NewSynchronizer(
	network model.Network,
	counter *CounterTracker,
	pools *PoolAggregator,
	store storage.Store,
	subscriber Subscriber,
	classifier *protocol.Classifier,
	logger *zap.Logger,
) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		network:    network,
		counter:    counter,
		pools:      pools,
		store:      store,
		subscriber: subscriber,
		classifier: classifier,
		logger:     logger,
		now:        time.Now,
	}
}

// WithLocker adds cross-process exclusion around Synchronize.
func (s *Synchronizer) WithLocker(locker storage.Locker) *Synchronizer {
	s.locker = locker
	return s
}

// WithMetrics records sync and subscription metrics.
func (s *Synchronizer) WithMetrics(metrics *Metrics) *Synchronizer {
	s.metrics = metrics
	return s
}

// SubscribeResult summarizes one subscription pass.
type SubscribeResult struct {
	Subscribed int
	Skipped    int
	Failures   []*SubscribeError
}

func (r *SubscribeResult) merge(other SubscribeResult) {
	r.Subscribed += other.Subscribed
	r.Skipped += other.Skipped
	r.Failures = append(r.Failures, other.Failures...)
}

// ContractsRequest subscribes one storage key across many contracts.
type ContractsRequest struct {
	ContractIDs []string
	KeyXdr      string
	Durability  string
	Hydrate     bool
}

type syncOutcome struct {
	pools []model.LiquidityPool
	err   error
}

// Synchronize compares the on-chain pair counter with the persisted one, subscribes
// the newly created pairs and returns their pools; with nothing new it returns pools
// for every known pair. Concurrent calls for the same factory share one run.
//
// Subscription failures do not stop the run: the counter is still advanced once every
// subscription was attempted, and the pools are returned together with a
// *PartialSyncError naming what to re-subscribe.
func (s *Synchronizer) Synchronize(ctx context.Context) ([]model.LiquidityPool, error) {
	factory, err := s.counter.FactoryAddress(ctx)
	if err != nil {
		return nil, err
	}
	if s.classifier != nil && s.classifier.AddSoroswapFactory(factory) {
		s.logger.Info("factory added to classifier", zap.String("factory", factory))
	}
	key := string(s.network) + ":" + factory

	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		pools, err := s.synchronizeExclusive(ctx, key, factory)
		return syncOutcome{pools: pools, err: err}, nil
	})
	out := v.(syncOutcome)
	return out.pools, out.err
}

func (s *Synchronizer) synchronizeExclusive(ctx context.Context, key, factory string) ([]model.LiquidityPool, error) {
	if s.locker != nil {
		release, err := s.locker.TryLock(ctx, "pairscope:sync:"+key)
		if err != nil {
			if errors.Is(err, storage.ErrLockHeld) {
				return nil, ErrSyncInProgress
			}
			return nil, fmt.Errorf("take sync lock: %w", err)
		}
		defer release()
	}

	started := time.Now()
	pools, err := s.run(ctx, factory)

	var partial *PartialSyncError
	switch {
	case err == nil:
		s.metrics.observeSync(s.network, resultOK, started)
	case errors.As(err, &partial):
		s.metrics.observeSync(s.network, resultPartial, started)
	default:
		s.metrics.observeSync(s.network, resultFailed, started)
	}
	return pools, err
}

func (s *Synchronizer) run(ctx context.Context, factory string) ([]model.LiquidityPool, error) {
	logger := s.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("network", string(s.network)),
		zap.String("factory", factory),
	)

	newCount, err := s.counter.PairCounter(ctx)
	if err != nil {
		return nil, err
	}

	var oldCount uint32
	counter, ok, err := s.store.LoadCounter(ctx, s.network)
	if err != nil {
		return nil, fmt.Errorf("load counter: %w", err)
	}
	if ok {
		oldCount = counter.Count
	} else {
		logger.Info("no persisted counter, starting from zero")
	}

	if newCount <= oldCount {
		if newCount < oldCount {
			logger.Warn("on-chain counter behind persisted counter", zap.Uint32("on_chain", newCount), zap.Uint32("persisted", oldCount))
		}
		logger.Info("no new pairs", zap.Uint32("count", newCount))
		addresses, err := s.pools.PairAddresses(ctx, newCount)
		if err != nil {
			return nil, err
		}
		if len(addresses) == 0 {
			return []model.LiquidityPool{}, nil
		}
		return s.pools.Assemble(ctx, addresses)
	}

	logger.Info("new pairs found", zap.Uint32("old_count", oldCount), zap.Uint32("new_count", newCount))

	result, err := s.SubscribeFactoryRange(ctx, factory, oldCount, newCount)
	if err != nil {
		return nil, err
	}

	addresses, err := s.pools.PairAddresses(ctx, newCount)
	if err != nil {
		return nil, err
	}
	if uint32(len(addresses)) < newCount {
		return nil, fmt.Errorf("%w: expected %d pair addresses, got %d", ErrMalformedEntry, newCount, len(addresses))
	}
	newAddresses := addresses[oldCount:newCount]

	contracts, err := s.SubscribeContracts(ctx, ContractsRequest{
		ContractIDs: newAddresses,
		KeyXdr:      protocol.InstanceKeyXdr,
		Durability:  model.DurabilityPersistent,
		Hydrate:     true,
	})
	if err != nil {
		return nil, err
	}
	for _, failure := range contracts.Failures {
		failure.Index += int(oldCount)
	}
	result.merge(contracts)

	if err := s.store.SaveCounter(ctx, s.network, newCount); err != nil {
		return nil, fmt.Errorf("save counter: %w", err)
	}
	logger.Info("counter updated", zap.Uint32("count", newCount))
	if len(result.Failures) > 0 {
		logger.Warn("subscriptions failed", zap.Int("failures", len(result.Failures)))
	}
	logger.Info("subscriptions done", zap.Int("subscribed", result.Subscribed), zap.Int("skipped", result.Skipped))

	pools, err := s.pools.Assemble(ctx, newAddresses)
	if err != nil {
		return nil, err
	}
	if len(result.Failures) > 0 {
		return pools, &PartialSyncError{Failures: result.Failures}
	}
	return pools, nil
}

// SubscribeFactoryRange subscribes the factory's pair-list keys for indices
// [from, to). Existing subscriptions are skipped; a failure is recorded for its index
// and the remaining indices are still processed.
func (s *Synchronizer) SubscribeFactoryRange(ctx context.Context, factory string, from, to uint32) (SubscribeResult, error) {
	var result SubscribeResult
	if from >= to {
		return result, nil
	}

	for i := uint64(from); i < uint64(to); i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		index := uint32(i)

		keyXdr, err := dex.PairKeyXdr(index)
		if err != nil {
			result.Failures = append(result.Failures, &SubscribeError{Index: int(index), ContractID: factory, Err: err})
			continue
		}
		fail := func(err error) {
			s.logger.Warn("pair key subscription failed", zap.Uint32("index", index), zap.Error(err))
			s.metrics.subscription(subscribeKindFactoryKey, resultFailed)
			result.Failures = append(result.Failures, &SubscribeError{Index: int(index), ContractID: factory, KeyXdr: keyXdr, Err: err})
		}

		exists, err := s.store.SubscriptionExists(ctx, factory, keyXdr, s.network)
		if err != nil {
			fail(fmt.Errorf("lookup subscription: %w", err))
			continue
		}
		if exists {
			s.logger.Debug("pair key already subscribed", zap.Uint32("index", index))
			s.metrics.subscription(subscribeKindFactoryKey, resultSkipped)
			result.Skipped++
			continue
		}

		err = s.subscriber.Subscribe(ctx, model.SubscribeRequest{
			ContractID: factory,
			KeyXdr:     keyXdr,
			Durability: model.DurabilityPersistent,
		})
		if err != nil {
			fail(err)
			continue
		}
		sub := buildSubscription(s.classifier, s.network, factory, keyXdr, s.now())
		if _, err := s.store.CreateSubscription(ctx, sub); err != nil {
			fail(fmt.Errorf("persist subscription: %w", err))
			continue
		}
		s.metrics.subscription(subscribeKindFactoryKey, resultOK)
		result.Subscribed++
	}
	return result, nil
}

// SubscribeContracts subscribes req.KeyXdr on every contract not yet subscribed, with
// a single batch call. Failures are recorded per contract position.
func (s *Synchronizer) SubscribeContracts(ctx context.Context, req ContractsRequest) (SubscribeResult, error) {
	var result SubscribeResult
	if len(req.ContractIDs) == 0 || req.KeyXdr == "" {
		return result, fmt.Errorf("%w: contract ids and key xdr are required", ErrInvalidRequest)
	}
	if req.Durability == "" {
		req.Durability = model.DurabilityPersistent
	}

	pending := make([]model.SubscribeRequest, 0, len(req.ContractIDs))
	positions := make([]int, 0, len(req.ContractIDs))
	for i, contractID := range req.ContractIDs {
		exists, err := s.store.SubscriptionExists(ctx, contractID, req.KeyXdr, s.network)
		if err != nil {
			result.Failures = append(result.Failures, &SubscribeError{Index: i, ContractID: contractID, KeyXdr: req.KeyXdr, Err: fmt.Errorf("lookup subscription: %w", err)})
			continue
		}
		if exists {
			s.metrics.subscription(subscribeKindContract, resultSkipped)
			result.Skipped++
			continue
		}
		pending = append(pending, model.SubscribeRequest{
			ContractID: contractID,
			KeyXdr:     req.KeyXdr,
			Durability: req.Durability,
			Hydrate:    req.Hydrate,
		})
		positions = append(positions, i)
	}
	if len(pending) == 0 {
		s.logger.Debug("all contracts already subscribed", zap.Int("contracts", len(req.ContractIDs)))
		return result, nil
	}

	errs := s.subscriber.SubscribeBatch(ctx, pending)
	for j, sreq := range pending {
		var err error
		if j < len(errs) {
			err = errs[j]
		}
		if err == nil {
			sub := buildSubscription(s.classifier, s.network, sreq.ContractID, sreq.KeyXdr, s.now())
			if _, perr := s.store.CreateSubscription(ctx, sub); perr != nil {
				err = fmt.Errorf("persist subscription: %w", perr)
			}
		}
		if err != nil {
			s.logger.Warn("contract subscription failed", zap.String("contract", sreq.ContractID), zap.Error(err))
			s.metrics.subscription(subscribeKindContract, resultFailed)
			result.Failures = append(result.Failures, &SubscribeError{Index: positions[j], ContractID: sreq.ContractID, KeyXdr: sreq.KeyXdr, Err: err})
			continue
		}
		s.metrics.subscription(subscribeKindContract, resultOK)
		result.Subscribed++
	}
	return result, nil
}
