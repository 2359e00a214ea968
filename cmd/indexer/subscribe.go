package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairScope/internal/config"
	"pairScope/internal/indexer"
	"pairScope/internal/protocol"
)

func runSubscribe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSubscribe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	contractIDs, err := indexer.ParseContractIDs(cfg.Contracts)
	if err != nil {
		return err
	}
	if len(contractIDs) == 0 {
		return fmt.Errorf("contract list is required")
	}

	keyXdr := cfg.KeyXdr
	if keyXdr == "" {
		keyXdr = protocol.InstanceKeyXdr
	}
	keyXdr, err = indexer.ParseKeyXdr(keyXdr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg.Common, nil, nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("subscribe start",
		zap.String("network", string(cfg.Network)),
		zap.Int("contracts", len(contractIDs)),
		zap.String("key_xdr", keyXdr),
		zap.String("durability", cfg.Durability),
		zap.Bool("hydrate", cfg.Hydrate),
	)

	result, err := a.synchronizer().SubscribeContracts(ctx, indexer.ContractsRequest{
		ContractIDs: contractIDs,
		KeyXdr:      keyXdr,
		Durability:  cfg.Durability,
		Hydrate:     cfg.Hydrate,
	})
	if err != nil {
		return err
	}

	for _, failure := range result.Failures {
		logger.Warn("subscribe failed",
			zap.Int("index", failure.Index),
			zap.String("contract", failure.ContractID),
			zap.String("key_xdr", failure.KeyXdr),
			zap.Error(failure.Err),
		)
	}
	logger.Info("subscribe done",
		zap.Int("subscribed", result.Subscribed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failures)),
	)
	if len(result.Failures) > 0 {
		return &indexer.PartialSyncError{Failures: result.Failures}
	}
	return nil
}
