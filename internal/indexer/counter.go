package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pairScope/internal/dex"
	"pairScope/internal/model"
	"pairScope/internal/protocol"
)

// RetryConfig bounds the retries of idempotent ledger reads.
type RetryConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// CounterTracker reads the number of pairs a factory has created.
type CounterTracker struct {
	factory protocol.FactoryResolver
	source  EntrySource
	retry   RetryConfig
	network model.Network
	metrics *Metrics
	logger  *zap.Logger
}

func NewCounterTracker(network model.Network, factory protocol.FactoryResolver, source EntrySource, retry RetryConfig, metrics *Metrics, logger *zap.Logger) *CounterTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CounterTracker{
		factory: factory,
		source:  source,
		retry:   retry,
		network: network,
		metrics: metrics,
		logger:  logger,
	}
}

// FactoryAddress resolves the factory contract being tracked.
func (t *CounterTracker) FactoryAddress(ctx context.Context) (string, error) {
	address, err := t.factory.FactoryAddress(ctx)
	if err != nil {
		return "", unavailable("resolve factory address", err)
	}
	return address, nil
}

// PairCounter returns the factory's totalPairs. A factory with no instance entries
// yet has zero pairs.
func (t *CounterTracker) PairCounter(ctx context.Context) (uint32, error) {
	factory, err := t.FactoryAddress(ctx)
	if err != nil {
		return 0, err
	}

	var set *model.EntrySet
	err = withRetry(ctx, t.retry.MaxRetries, t.retry.RetryBackoff, func(ctx context.Context) error {
		var err error
		set, err = t.source.LatestEntry(ctx, factory, protocol.InstanceKeyXdr)
		if err != nil {
			t.logger.Warn("pair counter read failed", zap.String("factory", factory), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return 0, unavailable("read pair counter", err)
	}

	entries, err := dex.DecodeFactoryInstance(set)
	if err != nil {
		return 0, fmt.Errorf("decode factory instance: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	count := entries[0].TotalPairs
	t.metrics.pairCounter(t.network, count)
	return count, nil
}
