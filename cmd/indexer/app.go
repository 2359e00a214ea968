package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pairScope/internal/chain"
	"pairScope/internal/config"
	"pairScope/internal/dex"
	"pairScope/internal/indexer"
	"pairScope/internal/mercury"
	"pairScope/internal/protocol"
	"pairScope/internal/storage"
	"pairScope/internal/storage/postgres"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg     config.Common
	logger  *zap.Logger
	metrics *indexer.Metrics

	mercury    *mercury.Client
	chain      *chain.Client
	source     indexer.EntrySource
	factory    protocol.FactoryResolver
	classifier *protocol.Classifier
	tokens     *dex.TokenList
	store      storage.Store
	locker     storage.Locker

	closers []func()
}

// newApp connects the configured backends. A nil store selects Postgres when
// a DSN is configured and the in-memory store otherwise.
func newApp(ctx context.Context, cfg config.Common, store storage.Store, metrics *indexer.Metrics, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics}

	mc, err := mercury.NewClient(mercury.Config{
		GraphQLURL: cfg.MercuryGraphQL,
		BackendURL: cfg.MercuryBackend,
		Token:      cfg.MercuryToken,
		Email:      cfg.MercuryEmail,
		Password:   cfg.MercuryPassword,
		Timeout:    cfg.RequestTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	a.mercury = mc
	a.source = mc

	if cfg.SorobanRPC != "" {
		cc, err := chain.NewClient(ctx, cfg.SorobanRPC, cfg.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		a.chain = cc
		a.closers = append(a.closers, cc.Close)
	}
	if cfg.CounterSource == config.SourceRPC {
		if a.chain == nil {
			a.Close()
			return nil, fmt.Errorf("soroban rpc url is required for counter source %q", cfg.CounterSource)
		}
		a.source = a.chain
	}

	a.factory, a.classifier, err = newFactories(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.TokensFile != "" {
		a.tokens, err = dex.LoadTokenList(cfg.TokensFile)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	if store != nil {
		a.store = store
		if locker, ok := store.(storage.Locker); ok {
			a.locker = locker
		}
		return a, nil
	}

	if cfg.PGDSN == "" {
		logger.Warn("no pg dsn configured, using in-memory store")
		mem := storage.NewMemoryStore()
		a.store, a.locker = mem, mem
		return a, nil
	}

	pg, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, pg.Close)
	if err := pg.InitSchema(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.store, a.locker = pg, pg
	return a, nil
}

// newFactories resolves the pair factory and builds the classifier. A
// configured factory address is also classified as Soroswap.
func newFactories(cfg config.Common) (protocol.FactoryResolver, *protocol.Classifier, error) {
	soroswap, err := optionalContractIDs(cfg.SoroswapFactories)
	if err != nil {
		return nil, nil, fmt.Errorf("soroswap factories: %w", err)
	}
	phoenix, err := optionalContractIDs(cfg.PhoenixFactories)
	if err != nil {
		return nil, nil, fmt.Errorf("phoenix factories: %w", err)
	}

	sets := protocol.DefaultFactories(cfg.Network).WithOverrides(soroswap, phoenix)

	ids, err := indexer.ParseContractIDs([]string{cfg.FactoryAddress})
	if err != nil {
		return nil, nil, fmt.Errorf("factory address: %w", err)
	}
	if len(ids) == 0 {
		resolver := protocol.NewRemoteFactory(cfg.Network, cfg.FactoryURL, cfg.RequestTimeout)
		return resolver, protocol.NewClassifier(sets), nil
	}

	sets.Soroswap = append(append([]string(nil), sets.Soroswap...), ids[0])
	return protocol.StaticFactory(ids[0]), protocol.NewClassifier(sets), nil
}

func optionalContractIDs(inputs []string) ([]string, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	return indexer.ParseContractIDs(inputs)
}

func (a *app) retry() indexer.RetryConfig {
	return indexer.RetryConfig{MaxRetries: a.cfg.MaxRetries, RetryBackoff: a.cfg.RetryBackoff}
}

func (a *app) counterTracker() *indexer.CounterTracker {
	return indexer.NewCounterTracker(a.cfg.Network, a.factory, a.source, a.retry(), a.metrics, a.logger)
}

func (a *app) synchronizer() *indexer.Synchronizer {
	pools := indexer.NewPoolAggregator(a.cfg.Network, a.factory, a.source, a.tokens, a.cfg.QueryBatchSize, a.retry(), a.metrics, a.logger)
	s := indexer.NewSynchronizer(a.cfg.Network, a.counterTracker(), pools, a.store, a.mercury, a.classifier, a.logger).
		WithMetrics(a.metrics)
	if a.locker != nil {
		s = s.WithLocker(a.locker)
	}
	return s
}

func (a *app) reconciler() *indexer.Reconciler {
	return indexer.NewReconciler(a.cfg.Network, a.mercury, a.store, a.classifier, a.metrics, a.logger)
}

// Close releases connections in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
