package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairScope/internal/config"
	"pairScope/internal/indexer"
	"pairScope/internal/storage"
)

func runSync(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSync(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := indexer.NewMetrics(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr, logger)
		defer shutdown()
	}

	a, err := newApp(ctx, cfg.Common, nil, metrics, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	synchronizer := a.synchronizer()
	sink := storage.NewJsonlStorage(cfg.Out, cfg.Network)

	logger.Info("sync start",
		zap.String("network", string(cfg.Network)),
		zap.String("counter_source", cfg.CounterSource),
		zap.Int("query_batch_size", cfg.QueryBatchSize),
		zap.String("out", cfg.Out),
		zap.Duration("interval", cfg.Interval),
	)

	if cfg.Interval <= 0 {
		return syncOnce(ctx, synchronizer, sink, logger)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		if err := syncOnce(ctx, synchronizer, sink, logger); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("sync failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.Info("sync stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// syncOnce runs one synchronization and writes the assembled pools. A partial
// sync still writes its pools and is only logged.
func syncOnce(ctx context.Context, synchronizer *indexer.Synchronizer, sink storage.PoolSink, logger *zap.Logger) error {
	pools, err := synchronizer.Synchronize(ctx)

	var partial *indexer.PartialSyncError
	switch {
	case err == nil:
	case errors.As(err, &partial):
		for _, failure := range partial.Failures {
			logger.Warn("subscribe failed",
				zap.Int("index", failure.Index),
				zap.String("contract", failure.ContractID),
				zap.String("key_xdr", failure.KeyXdr),
				zap.Error(failure.Err),
			)
		}
	case errors.Is(err, indexer.ErrSyncInProgress):
		logger.Info("sync already running elsewhere, skipping")
		return nil
	default:
		return err
	}

	if len(pools) == 0 {
		return nil
	}
	if err := sink.PutPoolBatch(pools); err != nil {
		return err
	}
	logger.Info("pools written", zap.Int("pools", len(pools)))
	return nil
}

func serveMetrics(addr string, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
