package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pairScope/internal/dex"
	"pairScope/internal/model"
	"pairScope/internal/protocol"
)

// DefaultQueryBatchSize caps the aliased sub-queries sent in one request.
const DefaultQueryBatchSize = 50

// PoolAggregator retrieves pair addresses from the factory and joins pair storage
// with token metadata into pool snapshots.
type PoolAggregator struct {
	factory   protocol.FactoryResolver
	source    EntrySource
	tokens    *dex.TokenList
	network   model.Network
	batchSize int
	retry     RetryConfig
	metrics   *Metrics
	logger    *zap.Logger
}

func NewPoolAggregator(network model.Network, factory protocol.FactoryResolver, source EntrySource, tokens *dex.TokenList, batchSize int, retry RetryConfig, metrics *Metrics, logger *zap.Logger) *PoolAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = DefaultQueryBatchSize
	}
	return &PoolAggregator{
		factory:   factory,
		source:    source,
		tokens:    tokens,
		network:   network,
		batchSize: batchSize,
		retry:     retry,
		metrics:   metrics,
		logger:    logger,
	}
}

// PairAddresses lists the first count pair contracts indexed by the factory, in index
// order. A missing index fails with ErrMalformedEntry.
func (a *PoolAggregator) PairAddresses(ctx context.Context, count uint32) ([]string, error) {
	if count == 0 {
		return []string{}, nil
	}
	factory, err := a.factory.FactoryAddress(ctx)
	if err != nil {
		return nil, unavailable("resolve factory address", err)
	}

	keys := make([]string, count)
	for i := range keys {
		if keys[i], err = dex.PairKeyXdr(uint32(i)); err != nil {
			return nil, err
		}
	}

	sets := make([]*model.EntrySet, 0, count)
	for _, r := range chunks(len(keys), a.batchSize) {
		batch := keys[r.From : r.To+1]
		var got []*model.EntrySet
		err := withRetry(ctx, a.retry.MaxRetries, a.retry.RetryBackoff, func(ctx context.Context) error {
			var err error
			got, err = a.source.EntriesByKeys(ctx, factory, batch)
			if err != nil {
				a.logger.Warn("pair address batch failed", zap.Uint64("from", r.From), zap.Uint64("to", r.To), zap.Error(err))
			}
			return err
		})
		if err != nil {
			return nil, unavailable("read pair addresses", err)
		}
		if len(got) != len(batch) {
			return nil, fmt.Errorf("%w: expected %d pair address sets, got %d", ErrMalformedEntry, len(batch), len(got))
		}
		sets = append(sets, got...)
	}

	return dex.DecodePairAddresses(sets)
}

// Assemble returns one pool per address whose pair storage decodes to a complete
// token pair with reserves. Addresses without data are omitted.
func (a *PoolAggregator) Assemble(ctx context.Context, addresses []string) ([]model.LiquidityPool, error) {
	if len(addresses) == 0 {
		return nil, fmt.Errorf("%w: no pair addresses", ErrInvalidRequest)
	}

	sets := make([]*model.EntrySet, 0, len(addresses))
	for _, r := range chunks(len(addresses), a.batchSize) {
		batch := addresses[r.From : r.To+1]
		var got []*model.EntrySet
		err := withRetry(ctx, a.retry.MaxRetries, a.retry.RetryBackoff, func(ctx context.Context) error {
			var err error
			got, err = a.source.EntriesByContracts(ctx, batch, protocol.InstanceKeyXdr)
			if err != nil {
				a.logger.Warn("pair storage batch failed", zap.Uint64("from", r.From), zap.Uint64("to", r.To), zap.Error(err))
			}
			return err
		})
		if err != nil {
			return nil, unavailable("read pair storage", err)
		}
		for i, set := range got {
			if i < len(batch) {
				set = withContractID(set, batch[i])
			}
			sets = append(sets, set)
		}
	}

	pairs, err := dex.DecodePairInstances(sets, a.logger)
	if err != nil {
		return nil, fmt.Errorf("decode pair storage: %w", err)
	}

	pools := make([]model.LiquidityPool, 0, len(pairs))
	for _, pair := range pairs {
		pools = append(pools, buildPool(pair, a.tokens, a.network))
	}
	a.metrics.poolsAssembled(len(pools))
	a.logger.Debug("pools assembled", zap.Int("requested", len(addresses)), zap.Int("pools", len(pools)))
	return pools, nil
}

// withContractID fills entries that came back without a contract id.
func withContractID(set *model.EntrySet, contractID string) *model.EntrySet {
	if set == nil {
		return nil
	}
	out := &model.EntrySet{Alias: set.Alias, Entries: make([]model.LedgerEntry, len(set.Entries))}
	for i, entry := range set.Entries {
		if entry.ContractID == "" {
			entry.ContractID = contractID
		}
		out.Entries[i] = entry
	}
	return out
}
