package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairScope/internal/config"
)

func runStatus(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadStatus(cfgFile, cmd.Flags())
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

	a, err := newApp(ctx, cfg, nil, nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	fields := []zap.Field{zap.String("network", string(cfg.Network))}

	if a.chain != nil {
		ledger, err := a.chain.GetLatestLedger(ctx)
		if err != nil {
			logger.Warn("latest ledger unavailable", zap.Error(err))
		} else {
			fields = append(fields,
				zap.Uint32("latest_ledger", ledger.Sequence),
				zap.Uint32("protocol_version", ledger.ProtocolVersion),
			)
		}
	}

	tracker := a.counterTracker()
	factory, err := tracker.FactoryAddress(ctx)
	if err != nil {
		return err
	}
	onChain, err := tracker.PairCounter(ctx)
	if err != nil {
		return err
	}
	fields = append(fields, zap.String("factory", factory), zap.Uint32("ledger_pairs", onChain))

	stored, ok, err := a.store.LoadCounter(ctx, cfg.Network)
	if err != nil {
		return err
	}
	if ok {
		fields = append(fields,
			zap.Uint32("stored_pairs", stored.Count),
			zap.Uint32("pending_pairs", pending(onChain, stored.Count)),
		)
	}

	logger.Info("status", fields...)
	return nil
}

func pending(onChain, stored uint32) uint32 {
	if onChain <= stored {
		return 0
	}
	return onChain - stored
}
